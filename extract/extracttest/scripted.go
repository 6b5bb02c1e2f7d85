// Package extracttest provides deterministic extractors for tests.
package extracttest

import (
	"context"
	"sync"

	"github.com/tbxark/loanagent/types"
)

// Call records one extraction request.
type Call struct {
	Field  string
	Answer string
}

// Scripted answers from a per-field table. A field missing from the table, or
// mapped to an empty string, is reported as not found. Err, when set, fails every
// call.
type Scripted struct {
	mu     sync.Mutex
	Values map[string]string
	Err    error
	calls  []Call
}

func NewScripted(values map[string]string) *Scripted {
	return &Scripted{Values: values}
}

func (s *Scripted) Extract(ctx context.Context, req *types.ExtractRequest) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Field: req.Field.Name, Answer: req.Answer})
	if s.Err != nil {
		return "", false, s.Err
	}
	v, ok := s.Values[req.Field.Name]
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call{}, s.calls...)
}

// Echo reports the raw answer as the value, like an ideal extractor would for a
// direct reply.
type Echo struct{}

func (Echo) Extract(ctx context.Context, req *types.ExtractRequest) (string, bool, error) {
	if req.Answer == "" {
		return "", false, nil
	}
	return req.Answer, true, nil
}
