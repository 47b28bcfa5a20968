package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/config"
	"github.com/Cocofu92/rs-dashboard/pkg/database"
	"github.com/Cocofu92/rs-dashboard/pkg/redis"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := &Entry{Tickers: []string{"AAPL"}, RefreshedAt: now.Add(-23 * time.Hour)}

	assert.False(t, IsExpired(entry, 24*time.Hour, now))
	assert.True(t, IsExpired(entry, 24*time.Hour, now.Add(time.Hour)))
	assert.True(t, IsExpired(nil, 24*time.Hour, now))
	assert.True(t, IsExpired(&Entry{}, 24*time.Hour, now))
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), "rs")
	require.NoError(t, err)

	_, err = s.Get(ctx, "stocks|CS|XNAS,XNYS")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.ErrorIs(t, err, contracts.ErrCacheUnavailable)

	refreshed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(ctx, "stocks|CS|XNAS,XNYS", &Entry{Tickers: []string{"AAPL", "MSFT"}, RefreshedAt: refreshed}))

	got, err := s.Get(ctx, "stocks|CS|XNAS,XNYS")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
	assert.True(t, refreshed.Equal(got.RefreshedAt))

	// overwrite replaces wholesale
	require.NoError(t, s.Put(ctx, "stocks|CS|XNAS,XNYS", &Entry{Tickers: []string{"NVDA"}, RefreshedAt: refreshed}))
	got, err = s.Get(ctx, "stocks|CS|XNAS,XNYS")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, got.Tickers)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(context.Background(), "k", &Entry{Tickers: []string{"A"}, RefreshedAt: time.Now()}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, "rs")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "rs_bad.json"), []byte("{not json"), 0o644))

	_, err = s.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrCacheCorrupt)
	assert.ErrorIs(t, err, contracts.ErrCacheUnavailable)
}

func TestFileStore_KeySanitized(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "rs")
	require.NoError(t, err)

	p := s.path("../../etc/passwd")
	assert.Equal(t, s.dir, filepath.Dir(p))
}

func TestRedisStore_Disabled(t *testing.T) {
	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)

	s := NewRedisStore(client, "rs")
	require.NoError(t, s.Put(context.Background(), "k", &Entry{Tickers: []string{"A"}}))

	_, err = s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, &config.Config{Database: config.DatabaseConfig{URL: os.Getenv("DATABASE_URL")}})
	require.NoError(t, err)
	defer db.Close()

	s, err := NewPostgresStore(ctx, db)
	require.NoError(t, err)

	key := "test|" + time.Now().Format(time.RFC3339Nano)
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Put(ctx, key, &Entry{Tickers: []string{"AAPL"}, RefreshedAt: now}))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, got.Tickers)
	assert.True(t, now.Equal(got.RefreshedAt))
}
