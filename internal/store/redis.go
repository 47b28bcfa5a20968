package store

import (
	"context"
	"fmt"

	"github.com/Cocofu92/rs-dashboard/pkg/redis"
)

// RedisStore keeps entries in Redis without a Redis TTL;
// staleness is decided by IsExpired like every other backend
type RedisStore struct {
	cache *redis.Cache
}

// NewRedisStore wraps a redis cache helper
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{cache: redis.NewCache(client, prefix)}
}

// Get reads the entry for key
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	var entry Entry
	found, err := s.cache.Get(ctx, redis.UniverseKey(key), &entry)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrCacheCorrupt)
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &entry, nil
}

// Put overwrites the entry with a single SET
func (s *RedisStore) Put(ctx context.Context, key string, entry *Entry) error {
	if err := s.cache.Set(ctx, redis.UniverseKey(key), entry, 0); err != nil {
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	return nil
}
