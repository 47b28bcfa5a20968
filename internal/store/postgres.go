package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Cocofu92/rs-dashboard/pkg/database"
)

const createUniverseCache = `
	CREATE TABLE IF NOT EXISTS rs_universe_cache (
		cache_key    TEXT PRIMARY KEY,
		tickers      JSONB NOT NULL,
		refreshed_at TIMESTAMPTZ NOT NULL
	)`

// PostgresStore keeps entries in rs_universe_cache
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates the table if it does not exist
func NewPostgresStore(ctx context.Context, db *database.DB) (*PostgresStore, error) {
	if _, err := db.Pool.Exec(ctx, createUniverseCache); err != nil {
		return nil, fmt.Errorf("create rs_universe_cache: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Get reads the entry for key
func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := `
		SELECT tickers, refreshed_at
		FROM rs_universe_cache
		WHERE cache_key = $1
	`

	var raw []byte
	var entry Entry
	err := s.db.Pool.QueryRow(ctx, query, key).Scan(&raw, &entry.RefreshedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %v: %w", key, err, ErrCacheMiss)
	}

	if err := json.Unmarshal(raw, &entry.Tickers); err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", key, err, ErrCacheCorrupt)
	}
	return &entry, nil
}

// Put upserts the entry; a single statement is atomic for readers
func (s *PostgresStore) Put(ctx context.Context, key string, entry *Entry) error {
	tickers, err := json.Marshal(entry.Tickers)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	query := `
		INSERT INTO rs_universe_cache (cache_key, tickers, refreshed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET
			tickers = EXCLUDED.tickers,
			refreshed_at = EXCLUDED.refreshed_at
	`

	if _, err := s.db.Pool.Exec(ctx, query, key, tickers, entry.RefreshedAt); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}
