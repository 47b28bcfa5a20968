package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

var (
	// ErrCacheMiss means no entry exists for the key
	ErrCacheMiss = fmt.Errorf("cache miss: %w", contracts.ErrCacheUnavailable)
	// ErrCacheCorrupt means an entry exists but cannot be decoded
	ErrCacheCorrupt = fmt.Errorf("cache corrupt: %w", contracts.ErrCacheUnavailable)
)

// Entry is one cached ticker universe
type Entry struct {
	Tickers     []string  `json:"tickers"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Store is a durable key-value store for ticker universes.
// Put replaces the whole entry atomically; readers never see a partial write.
// ⭐ SSOT: 유니버스 캐시 저장소 인터페이스
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry *Entry) error
}

// IsExpired reports whether entry is older than ttl at now
func IsExpired(entry *Entry, ttl time.Duration, now time.Time) bool {
	if entry == nil || entry.RefreshedAt.IsZero() {
		return true
	}
	return now.Sub(entry.RefreshedAt) >= ttl
}
