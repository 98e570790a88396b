package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-widget/internal/domain"
)

// SnapshotStore keeps snapshots as plain string values:
//
//	SET quiz:snapshot:{key} {json} EX ttl
//
// The ttl bounds how long an abandoned browser scope keeps its progress; zero disables expiry.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	return data, err
}

func (s *SnapshotStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *SnapshotStore) key(key string) string {
	return "quiz:snapshot:" + key
}
