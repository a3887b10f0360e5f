package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshot_cache (
	key       TEXT PRIMARY KEY,
	value     BLOB NOT NULL,
	stored_at INTEGER NOT NULL
)`

// SQLiteCache persists entries in a local SQLite file
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteCache opens (or creates) the database at path and ensures the cache table exists.
// Use ":memory:" for a throwaway cache.
func OpenSQLiteCache(ctx context.Context, path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite cache schema: %w", err)
	}

	return &SQLiteCache{db: db, now: time.Now}, nil
}

// Get returns the entry stored under key
func (c *SQLiteCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	var (
		value    []byte
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, stored_at FROM snapshot_cache WHERE key = ?`, key,
	).Scan(&value, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, &Error{Op: "get", Key: key, Err: err}
	}

	return Entry{Value: value, StoredAt: time.Unix(0, storedAt)}, true, nil
}

// Set upserts value under key
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO snapshot_cache (key, value, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at
	`, key, value, c.now().UnixNano())
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Close closes the underlying database
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
