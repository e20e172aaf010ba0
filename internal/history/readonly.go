package history

import (
	"context"

	"github.com/amishk599/jobdigest/internal/model"
)

// ReadOnlyStore is used in dry-run mode. It reads the real history so new
// flags are accurate but never writes it back.
type ReadOnlyStore struct {
	inner model.HistoryStore
}

func NewReadOnlyStore(inner model.HistoryStore) *ReadOnlyStore { return &ReadOnlyStore{inner: inner} }

func (s *ReadOnlyStore) Load(ctx context.Context) (map[string]struct{}, error) {
	return s.inner.Load(ctx)
}

func (s *ReadOnlyStore) Persist(context.Context, map[string]struct{}) error { return nil }
