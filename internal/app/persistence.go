package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"quiz-widget/internal/domain"
)

// StorageKey is the fixed key quiz snapshots are stored under.
const StorageKey = "quizState"

// SnapshotStore abstracts the scoped key-value storage (in-memory, file, Redis, Postgres).
// Get returns domain.ErrSnapshotNotFound when the key is absent.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ScopedKey derives the storage key for one device or browser scope.
func ScopedKey(scope string) string {
	if scope == "" {
		return StorageKey
	}
	return StorageKey + ":" + scope
}

// PersistenceBridge saves, loads and clears the snapshot of a single session.
type PersistenceBridge struct {
	store SnapshotStore
	key   string
	log   zerolog.Logger
}

func NewPersistenceBridge(store SnapshotStore, key string, log zerolog.Logger) *PersistenceBridge {
	return &PersistenceBridge{
		store: store,
		key:   key,
		log:   log.With().Str("component", "persistence").Str("key", key).Logger(),
	}
}

// Key returns the storage key this bridge writes to.
func (b *PersistenceBridge) Key() string {
	return b.key
}

// Save overwrites the stored snapshot.
func (b *PersistenceBridge) Save(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := b.store.Set(ctx, b.key, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot. A missing or unparseable value
// reports ok=false so the caller starts a fresh session.
func (b *PersistenceBridge) Load(ctx context.Context) (domain.Snapshot, bool, error) {
	data, err := b.store.Get(ctx, b.key)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		b.log.Warn().Err(err).Msg("discarding malformed snapshot")
		return domain.Snapshot{}, false, nil
	}
	return snapshot, true, nil
}

// Clear removes the stored snapshot; clearing an absent key is not an error.
func (b *PersistenceBridge) Clear(ctx context.Context) error {
	if err := b.store.Delete(ctx, b.key); err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
