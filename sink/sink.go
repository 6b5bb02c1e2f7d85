package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/loanagent/types"
)

// Sink durably stores completed records. Implementations append; they never
// update or delete what was written before.
type Sink interface {
	Append(ctx context.Context, rec *types.Record) error
}

// Discard drops every record.
type Discard struct{}

func (Discard) Append(ctx context.Context, rec *types.Record) error { return nil }

type multi struct {
	sinks []Sink
}

// Multi writes each record to every sink. All sinks are attempted even when one
// fails; the failures are joined.
func Multi(sinks ...Sink) Sink {
	return &multi{sinks: sinks}
}

func (m *multi) Append(ctx context.Context, rec *types.Record) error {
	var errs []error
	for i, s := range m.sinks {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
