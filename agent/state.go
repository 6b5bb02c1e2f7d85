package agent

import (
	"context"

	"github.com/tbxark/loanagent/dialogue"
)

type stateKeyContext struct{}

// WithStateKey sets the session key used to route snapshot and transcript storage.
func WithStateKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, stateKeyContext{}, key)
}

// StateKeyFromContext gets the session key from the context.
func StateKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(stateKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

// SnapshotStore keeps one dialogue snapshot per session key.
type SnapshotStore struct {
	store Store[*dialogue.Snapshot]
}

func NewSnapshotStore(core Cache[*dialogue.Snapshot]) *SnapshotStore {
	return &SnapshotStore{store: NewStore(core, "loanagent:session", StateKeyFromContext)}
}

func NewMemorySnapshotStore() *SnapshotStore {
	return NewSnapshotStore(NewMemoryCache[*dialogue.Snapshot]())
}

// Load returns the stored snapshot; ok is false for a session that was never saved.
func (s *SnapshotStore) Load(ctx context.Context) (*dialogue.Snapshot, bool, error) {
	return s.store.Get(ctx)
}

func (s *SnapshotStore) Save(ctx context.Context, snap *dialogue.Snapshot) error {
	return s.store.Set(ctx, snap)
}

func (s *SnapshotStore) Exists(ctx context.Context) (bool, error) {
	return s.store.Exists(ctx)
}

func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.store.Del(ctx)
}
