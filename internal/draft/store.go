// Package draft keeps the startup story draft. Every change is written
// through to the store immediately so a reload loses nothing.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// StorageKey is the fixed key of the story draft. On the server it is
// namespaced per visitor.
const StorageKey = "classyai_startup_story"

func Key(visitorID string) string {
	return StorageKey + ":" + visitorID
}

// Store persists one string per key. A missing key loads as "".
type Store interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, text string) error
}

// RedisStore keeps drafts without expiry.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, key string) (string, error) {
	text, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load draft %s: %w", key, err)
	}
	return text, nil
}

func (s *RedisStore) Save(ctx context.Context, key, text string) error {
	if err := s.rdb.Set(ctx, key, text, 0).Err(); err != nil {
		return fmt.Errorf("save draft %s: %w", key, err)
	}
	return nil
}

type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[key], nil
}

func (s *MemoryStore) Save(_ context.Context, key, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[key] = text
	return nil
}
