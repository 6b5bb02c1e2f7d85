package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/loanagent/catalog"
	"github.com/tbxark/loanagent/dialogue"
	"github.com/tbxark/loanagent/extract"
	"github.com/tbxark/loanagent/sink"
	"github.com/tbxark/loanagent/types"
)

// Flow runs dialogue engines for many sessions. Each call restores the session
// engine from its snapshot, runs one operation and saves the new snapshot.
type Flow struct {
	catalog     *catalog.Catalog
	extractor   extract.Extractor
	sink        sink.Sink
	snapshots   *SnapshotStore
	transcripts *TranscriptStore
	engineOpts  []dialogue.Option
}

type FlowOption func(*Flow)

// WithTranscripts records every user message and reply in store.
func WithTranscripts(store *TranscriptStore) FlowOption {
	return func(f *Flow) {
		f.transcripts = store
	}
}

func WithEngineOptions(opts ...dialogue.Option) FlowOption {
	return func(f *Flow) {
		f.engineOpts = append(f.engineOpts, opts...)
	}
}

func NewFlow(
	cat *catalog.Catalog,
	extractor extract.Extractor,
	s sink.Sink,
	snapshots *SnapshotStore,
	opts ...FlowOption,
) (*Flow, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if snapshots == nil {
		snapshots = NewMemorySnapshotStore()
	}
	f := &Flow{
		catalog:   cat,
		extractor: extractor,
		sink:      s,
		snapshots: snapshots,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Flow) Catalog() *catalog.Catalog { return f.catalog }

func (f *Flow) Transcripts() *TranscriptStore { return f.transcripts }

// Start opens a new session, replacing any stored state for the key.
func (f *Flow) Start(ctx context.Context, prefill *types.Record) (*Response, error) {
	return f.run(ctx, "Start", map[string]any{"prefill": prefill}, func(ctx context.Context) (*dialogue.Response, error) {
		e := dialogue.NewEngine(f.catalog, f.extractor, f.sink, f.engineOpts...)
		if err := e.Prefill(prefill); err != nil {
			return nil, err
		}
		if f.transcripts != nil {
			if err := f.transcripts.Clear(ctx); err != nil {
				return nil, fmt.Errorf("clear transcript: %w", err)
			}
		}
		resp := e.Start()
		if err := f.save(ctx, e, nil, resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

// Invoke answers the session's current question, or appends to a repeatable
// field when the request names one.
func (f *Flow) Invoke(ctx context.Context, input *Request) (*Response, error) {
	if input == nil {
		return nil, fmt.Errorf("nil request")
	}
	if input.Field != "" {
		return f.AppendRepeatable(ctx, input.Field, input.UserInput)
	}
	return f.run(ctx, "Invoke", map[string]any{"input": input.UserInput}, func(ctx context.Context) (*dialogue.Response, error) {
		e, err := f.restore(ctx)
		if err != nil {
			return nil, err
		}
		slog.Debug("Processing turn", "pointer", e.Pointer(), "phase", e.Phase())
		resp := e.ProcessTurn(ctx, input.UserInput)
		if err := f.save(ctx, e, schema.UserMessage(input.UserInput), resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

func (f *Flow) AppendRepeatable(ctx context.Context, field, text string) (*Response, error) {
	return f.run(ctx, "AppendRepeatable", map[string]any{"field": field, "input": text}, func(ctx context.Context) (*dialogue.Response, error) {
		e, err := f.restore(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := e.AppendRepeatable(ctx, field, text)
		if err != nil {
			return nil, err
		}
		if err := f.save(ctx, e, schema.UserMessage(text), resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

// Prefill fills absent fields of an existing session.
func (f *Flow) Prefill(ctx context.Context, values *types.Record) error {
	e, err := f.restore(ctx)
	if err != nil {
		return err
	}
	if err := e.Prefill(values); err != nil {
		return err
	}
	return f.snapshots.Save(ctx, e.Snapshot())
}

func (f *Flow) Snapshot(ctx context.Context) (*dialogue.Snapshot, error) {
	snap, ok, err := f.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snap, nil
}

// Record returns the record collected so far.
func (f *Flow) Record(ctx context.Context) (*types.Record, error) {
	e, err := f.restore(ctx)
	if err != nil {
		return nil, err
	}
	return e.Record(), nil
}

// Reset drops the session snapshot and transcript.
func (f *Flow) Reset(ctx context.Context) error {
	exists, err := f.snapshots.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	if err := f.snapshots.Clear(ctx); err != nil {
		return err
	}
	if f.transcripts != nil {
		return f.transcripts.Clear(ctx)
	}
	return nil
}

func (f *Flow) restore(ctx context.Context) (*dialogue.Engine, error) {
	snap, err := f.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return dialogue.Restore(f.catalog, snap, f.extractor, f.sink, f.engineOpts...)
}

func (f *Flow) save(ctx context.Context, e *dialogue.Engine, user *schema.Message, resp *dialogue.Response) error {
	if err := f.snapshots.Save(ctx, e.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if f.transcripts == nil {
		return nil
	}
	msgs := []*schema.Message{schema.AssistantMessage(resp.Message, nil)}
	if user != nil {
		msgs = append([]*schema.Message{user}, msgs...)
	}
	if _, err := f.transcripts.Append(ctx, msgs...); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

func (f *Flow) run(ctx context.Context, name string, input map[string]any, fn func(ctx context.Context) (*dialogue.Response, error)) (*Response, error) {
	key, ok := StateKeyFromContext(ctx)
	if !ok || key == "" {
		return nil, ErrNoStateKey
	}
	ctx = callbacks.EnsureRunInfo(ctx, "LoanFlow", "Flow")
	input["session"] = key
	input["operation"] = name
	ctx = callbacks.OnStart(ctx, input)

	defer func() {
		if r := recover(); r != nil {
			callbacks.OnError(ctx, fmt.Errorf("panic in Flow.%s: %v", name, r))
			panic(r)
		}
	}()

	out, err := fn(ctx)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	callbacks.OnEnd(ctx, map[string]any{
		"response":  out,
		"phase":     string(out.Phase),
		"completed": out.Completed,
	})
	return &Response{Response: out, Session: key}, nil
}
