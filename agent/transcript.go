package agent

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepLastNTrimmer keeps system messages and the last N others.
// When N <= 0 nothing is trimmed.
type KeepLastNTrimmer struct {
	N int
}

func (t KeepLastNTrimmer) Trim(history []*schema.Message) []*schema.Message {
	if t.N <= 0 || len(history) == 0 {
		return history
	}

	others := 0
	for _, m := range history {
		if m.Role != schema.System {
			others++
		}
	}
	drop := others - t.N
	if drop <= 0 {
		return history
	}

	out := make([]*schema.Message, 0, len(history)-drop)
	for _, m := range history {
		if m.Role != schema.System && drop > 0 {
			drop--
			continue
		}
		out = append(out, m)
	}
	return out
}

// TranscriptStore keeps the chat history of each session.
type TranscriptStore struct {
	store   Store[[]*schema.Message]
	trimmer Trimmer
}

func NewTranscriptStore(core Cache[[]*schema.Message], trimmer Trimmer) *TranscriptStore {
	return &TranscriptStore{
		store:   NewStore(core, "loanagent:transcript", StateKeyFromContext),
		trimmer: trimmer,
	}
}

func NewMemoryTranscriptStore(trimmer Trimmer) *TranscriptStore {
	return NewTranscriptStore(NewMemoryCache[[]*schema.Message](), trimmer)
}

func (s *TranscriptStore) Load(ctx context.Context) ([]*schema.Message, error) {
	hist, ok, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return hist, nil
}

func (s *TranscriptStore) Save(ctx context.Context, history []*schema.Message) error {
	history = normalizeHistory(history)
	if s.trimmer != nil {
		history = s.trimmer.Trim(history)
	}
	return s.store.Set(ctx, history)
}

func (s *TranscriptStore) Clear(ctx context.Context) error {
	return s.store.Del(ctx)
}

// Append loads the history, appends msgs skipping exact repeats of the previous
// message, trims and saves. It returns the saved history.
func (s *TranscriptStore) Append(ctx context.Context, msgs ...*schema.Message) ([]*schema.Message, error) {
	hist, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	hist = appendHistory(hist, msgs...)
	if err := s.Save(ctx, hist); err != nil {
		return nil, err
	}
	return s.Load(ctx)
}

func appendHistory(history []*schema.Message, msgs ...*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history)+len(msgs))
	out = append(out, history...)
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last != nil && last.Role == msg.Role && last.Content == msg.Content {
				continue
			}
		}
		out = append(out, msg)
	}
	return out
}

func normalizeHistory(history []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
