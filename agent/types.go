package agent

import (
	"errors"

	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/loanagent/dialogue"
)

var ErrSessionNotFound = errors.New("session not found")

// Request is one user message for the session named by the context state key.
type Request struct {
	UserInput string `json:"user_input"`
	// Field routes the input to a repeatable field instead of the current question.
	Field string `json:"field,omitempty"`
}

type Response struct {
	*dialogue.Response
	Session string `json:"session"`
}

// Transcript is the stored chat history of one session.
type Transcript struct {
	Session  string            `json:"session"`
	Messages []*schema.Message `json:"messages"`
}
