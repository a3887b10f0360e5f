package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema creates the cache table; scripts/migrations/001_create_snapshot_cache.sql mirrors it
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS snapshot_cache (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	stored_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresCache persists entries in the snapshot_cache table
type PostgresCache struct {
	db *pgxpool.Pool
}

// NewPostgresCache creates a cache on top of an existing pool and ensures the table exists
func NewPostgresCache(ctx context.Context, db *pgxpool.Pool) (*PostgresCache, error) {
	if _, err := db.Exec(ctx, PostgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create snapshot_cache table: %w", err)
	}
	return &PostgresCache{db: db}, nil
}

// Get returns the entry stored under key
func (c *PostgresCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	var entry Entry
	err := c.db.QueryRow(ctx, `
		SELECT value, stored_at
		FROM snapshot_cache
		WHERE key = $1
	`, key).Scan(&entry.Value, &entry.StoredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, &Error{Op: "get", Key: key, Err: err}
	}
	return entry, true, nil
}

// Set upserts value under key
func (c *PostgresCache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.Exec(ctx, `
		INSERT INTO snapshot_cache (key, value, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, stored_at = EXCLUDED.stored_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}
