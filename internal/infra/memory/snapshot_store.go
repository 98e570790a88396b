package memory

import (
	"context"
	"sync"

	"quiz-widget/internal/domain"
)

// SnapshotStore is an in-memory implementation of app.SnapshotStore.
type SnapshotStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		values: make(map[string][]byte),
	}
}

func (s *SnapshotStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *SnapshotStore) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = stored
	return nil
}

func (s *SnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
