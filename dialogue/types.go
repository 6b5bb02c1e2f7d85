package dialogue

import (
	"errors"
	"time"

	"github.com/tbxark/loanagent/types"
)

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrNotRepeatable  = errors.New("field is not repeatable")
	ErrBadSnapshot    = errors.New("invalid snapshot")
	ErrInvalidPrefill = errors.New("invalid prefill")
)

// Response is what a turn hands back to the presentation layer.
type Response struct {
	Message string      `json:"message"`
	Phase   types.Phase `json:"phase"`
	// Field is the plan field the message asks for; empty once complete.
	Field     string `json:"field,omitempty"`
	Completed bool   `json:"completed"`
	// Captured is false when the turn stored nothing and the question is repeated.
	Captured bool `json:"captured"`
	// Reprompts counts how many times in a row Field has been asked again.
	Reprompts int               `json:"reprompts,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

const snapshotVersion = "1.0"

// Snapshot is the serialisable state of one session.
type Snapshot struct {
	Version      string                 `json:"version"`
	Catalog      string                 `json:"catalog,omitempty"`
	Phase        types.Phase            `json:"phase"`
	Record       map[string]types.Value `json:"record"`
	Pointer      int                    `json:"pointer"`
	Reprompts    map[string]int         `json:"reprompts,omitempty"`
	LastQuestion string                 `json:"last_question,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}
