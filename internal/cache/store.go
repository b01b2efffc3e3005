package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a TTL-bounded JSON document store on Redis, used for wizard
// sessions, payment sessions and the blocked-dates cache. Each consumer
// gets its own key prefix.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore creates a Store with the given key prefix and TTL.
func NewStore(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

// Put serializes value as JSON under the store's prefix, refreshing the TTL.
func (s *Store) Put(ctx context.Context, id string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", s.prefix, err)
	}
	if err := s.rdb.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s entry %s: %w", s.prefix, id, err)
	}
	return nil
}

// Get decodes the entry for id into dest. Returns ErrMiss when absent.
func (s *Store) Get(ctx context.Context, id string, dest interface{}) error {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("failed to load %s entry %s: %w", s.prefix, id, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s entry %s: %w", s.prefix, id, err)
	}
	return nil
}

// Delete removes the entry for id. Deleting a missing entry is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s entry %s: %w", s.prefix, id, err)
	}
	return nil
}
