package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tbxark/loanagent/catalog"
	"github.com/tbxark/loanagent/extract"
	"github.com/tbxark/loanagent/patch"
	"github.com/tbxark/loanagent/sink"
	"github.com/tbxark/loanagent/types"
)

// Engine runs the interview for one applicant. It is not safe for concurrent use;
// build one engine per session.
type Engine struct {
	catalog    *catalog.Catalog
	extractor  extract.Extractor
	sink       sink.Sink
	logger     *slog.Logger
	completion string

	record       *types.Record
	pointer      int
	phase        types.Phase
	reprompts    map[string]int
	lastQuestion string
}

// NewEngine starts a fresh session over cat. A nil extractor falls back to the
// local extractor and a nil sink discards completed records.
func NewEngine(cat *catalog.Catalog, extractor extract.Extractor, s sink.Sink, opts ...Option) *Engine {
	o := newEngineOptions(opts...)
	if extractor == nil {
		extractor = extract.NewLocalExtractor()
	}
	if s == nil {
		s = sink.Discard{}
	}
	completion := o.completion
	if completion == "" {
		completion = cat.CompletionMessage()
	}
	return &Engine{
		catalog:    cat,
		extractor:  extractor,
		sink:       s,
		logger:     o.logger,
		completion: completion,
		record:     cat.NewRecord(),
		phase:      types.PhaseCollecting,
		reprompts:  make(map[string]int),
	}
}

// NextField returns the first plan field at or after the pointer whose value is
// absent. It has no side effects.
func (e *Engine) NextField() (types.FieldInfo, bool) {
	i := e.firstOutstanding()
	if i >= e.catalog.PlanLen() {
		return types.FieldInfo{}, false
	}
	return e.catalog.PlanAt(i), true
}

func (e *Engine) firstOutstanding() int {
	n := e.catalog.PlanLen()
	for i := e.pointer; i < n; i++ {
		if e.record.IsAbsent(e.catalog.PlanAt(i).Name) {
			return i
		}
	}
	return n
}

// advance moves the pointer forward by steps, stopping at the first outstanding
// plan field so that every plan field behind the pointer is always filled.
func (e *Engine) advance(steps int) {
	next := e.pointer + steps
	if limit := e.firstOutstanding(); next > limit {
		next = limit
	}
	if next > e.pointer {
		e.pointer = next
	}
}

// Start returns the opening question without consuming any input.
func (e *Engine) Start() *Response {
	target, ok := e.NextField()
	if !ok {
		return e.completedResponse()
	}
	return e.ask(target, true)
}

// ProcessTurn interprets text as the answer to the outstanding plan field. When
// nothing can be extracted the same question is returned unchanged; when the
// plan is exhausted the record is persisted and the completion message returned.
func (e *Engine) ProcessTurn(ctx context.Context, text string) *Response {
	target, ok := e.NextField()
	if !ok {
		return e.complete(ctx)
	}

	question := e.catalog.Question(target.Name)
	e.logger.Debug("Extracting field", "field", target.Name, "pointer", e.pointer)
	value, found, err := e.extractor.Extract(ctx, &types.ExtractRequest{
		Field:    target,
		Question: question,
		Answer:   text,
		Record:   e.record.Clone(),
	})
	if err != nil {
		e.logger.Warn("Extraction unavailable, asking again", "field", target.Name, "error", err)
		found = false
	}
	if !found {
		e.reprompts[target.Name]++
		return e.ask(target, false)
	}

	steps, err := e.store(target, value, text)
	if err != nil {
		e.logger.Error("Store field failed", "field", target.Name, "error", err)
		e.reprompts[target.Name]++
		return e.ask(target, false)
	}
	delete(e.reprompts, target.Name)
	e.advance(steps)
	e.logger.Debug("Stored field", "field", target.Name, "pointer", e.pointer)
	return e.next(ctx)
}

// store writes the extracted value and reports how many plan positions the
// pointer should move. The record is left untouched when any write fails.
func (e *Engine) store(target types.FieldInfo, value, raw string) (int, error) {
	rec := e.record.Clone()
	steps := 1
	tokens := strings.Fields(raw)
	switch {
	case target.Kind == types.KindCompound && len(tokens) > 0:
		// compound fields split the raw answer, not the extracted value
		if err := rec.Set(target.Name, types.Scalar(tokens[0])); err != nil {
			return 0, err
		}
		if len(tokens) > 1 {
			if err := rec.Set(target.Spill, types.Scalar(strings.Join(tokens[1:], " "))); err != nil {
				return 0, err
			}
			steps = 2
		}
	default:
		if err := rec.Set(target.Name, types.Scalar(value)); err != nil {
			return 0, err
		}
	}
	e.record = rec
	return steps, nil
}

// AppendRepeatable appends text verbatim to a repeatable field without calling
// the extractor, then moves on like a filled turn would.
func (e *Engine) AppendRepeatable(ctx context.Context, field, text string) (*Response, error) {
	f, ok := e.catalog.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if f.Kind != types.KindRepeatable {
		return nil, fmt.Errorf("%w: %q", ErrNotRepeatable, field)
	}
	if err := e.record.Append(field, text); err != nil {
		return nil, err
	}
	e.advance(1)
	e.logger.Debug("Appended repeatable field", "field", field, "items", len(e.record.Get(field).Items()))
	return e.next(ctx), nil
}

// Prefill copies known values into fields that are still absent. Filled fields
// are never changed.
func (e *Engine) Prefill(values *types.Record) error {
	if values == nil {
		return nil
	}
	for _, name := range values.Fields() {
		v := values.Get(name)
		f, ok := e.catalog.Field(name)
		if !ok || v.IsAbsent() {
			continue
		}
		if (f.Kind == types.KindRepeatable) != (v.Kind() == types.ValueSequence) {
			return fmt.Errorf("%w: %q does not hold a %s value", ErrInvalidPrefill, name, f.Kind)
		}
	}

	ops := patch.Diff(e.record, values)
	if len(ops) == 0 {
		return nil
	}
	allowed := make(map[string]bool)
	for _, name := range e.catalog.FieldNames() {
		allowed[name] = true
	}
	if err := patch.Validate(ops, allowed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrefill, err)
	}
	rec, err := patch.Apply(e.record, ops)
	if err != nil {
		return fmt.Errorf("prefill: %w", err)
	}
	e.record = rec
	e.logger.Debug("Prefilled record", "fields", len(ops))
	return nil
}

func (e *Engine) next(ctx context.Context) *Response {
	target, ok := e.NextField()
	if !ok {
		return e.complete(ctx)
	}
	return e.ask(target, true)
}

func (e *Engine) ask(target types.FieldInfo, captured bool) *Response {
	question := e.catalog.Question(target.Name)
	e.lastQuestion = question
	return &Response{
		Message:   question,
		Phase:     e.phase,
		Field:     target.Name,
		Captured:  captured,
		Reprompts: e.reprompts[target.Name],
	}
}

// complete persists the record on every call. Calling it again after completion
// writes the record again; sinks are append-only and do not de-duplicate.
func (e *Engine) complete(ctx context.Context) *Response {
	e.phase = types.PhaseCompleted
	resp := e.completedResponse()
	if err := e.sink.Append(ctx, e.record.Clone()); err != nil {
		e.logger.Error("Persist record failed", "catalog", e.catalog.Name(), "error", err)
		resp.Metadata = map[string]string{"persist_error": err.Error()}
	} else {
		e.logger.Info("Record persisted", "catalog", e.catalog.Name())
	}
	return resp
}

func (e *Engine) completedResponse() *Response {
	e.lastQuestion = e.completion
	return &Response{
		Message:   e.completion,
		Phase:     e.phase,
		Completed: true,
		Captured:  true,
	}
}

// Record returns a copy of the record under construction.
func (e *Engine) Record() *types.Record { return e.record.Clone() }

func (e *Engine) Pointer() int { return e.pointer }

func (e *Engine) Phase() types.Phase { return e.phase }

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Completed reports whether every plan field holds a value.
func (e *Engine) Completed() bool {
	_, outstanding := e.NextField()
	return !outstanding
}

// Reprompts returns how many times field was asked again after a failed
// extraction.
func (e *Engine) Reprompts(field string) int { return e.reprompts[field] }

// LastQuestion returns the most recent message handed to the applicant.
func (e *Engine) LastQuestion() string { return e.lastQuestion }
