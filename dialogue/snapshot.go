package dialogue

import (
	"fmt"
	"maps"
	"time"

	"github.com/tbxark/loanagent/catalog"
	"github.com/tbxark/loanagent/extract"
	"github.com/tbxark/loanagent/sink"
	"github.com/tbxark/loanagent/types"
)

// Snapshot captures the session so it can be stored between turns.
func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Version:      snapshotVersion,
		Catalog:      e.catalog.Name(),
		Phase:        e.phase,
		Record:       e.record.Values(),
		Pointer:      e.pointer,
		Reprompts:    maps.Clone(e.reprompts),
		LastQuestion: e.lastQuestion,
		Timestamp:    time.Now().UTC(),
	}
}

// Restore rebuilds an engine from snap. The snapshot must belong to cat and keep
// the pointer behind the first outstanding plan field.
func Restore(cat *catalog.Catalog, snap *Snapshot, extractor extract.Extractor, s sink.Sink, opts ...Option) (*Engine, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrBadSnapshot)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: incompatible version %q (expected %s)", ErrBadSnapshot, snap.Version, snapshotVersion)
	}
	if snap.Catalog != "" && snap.Catalog != cat.Name() {
		return nil, fmt.Errorf("%w: snapshot belongs to catalog %q", ErrBadSnapshot, snap.Catalog)
	}
	if snap.Pointer < 0 || snap.Pointer > cat.PlanLen() {
		return nil, fmt.Errorf("%w: pointer %d outside plan", ErrBadSnapshot, snap.Pointer)
	}

	e := NewEngine(cat, extractor, s, opts...)
	for name, v := range snap.Record {
		f, ok := cat.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrBadSnapshot, name)
		}
		if !v.IsAbsent() && (v.Kind() == types.ValueSequence) != (f.Kind == types.KindRepeatable) {
			return nil, fmt.Errorf("%w: field %q holds the wrong kind of value", ErrBadSnapshot, name)
		}
		if err := e.record.Set(name, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
	}
	for i := 0; i < snap.Pointer; i++ {
		if name := cat.PlanAt(i).Name; e.record.IsAbsent(name) {
			return nil, fmt.Errorf("%w: pointer %d is past outstanding field %q", ErrBadSnapshot, snap.Pointer, name)
		}
	}

	e.pointer = snap.Pointer
	if snap.Phase != "" {
		e.phase = snap.Phase
	}
	if snap.Reprompts != nil {
		e.reprompts = maps.Clone(snap.Reprompts)
	}
	e.lastQuestion = snap.LastQuestion
	return e, nil
}
