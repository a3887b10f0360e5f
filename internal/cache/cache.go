// Package cache keeps the last successfully fetched backend payloads, verbatim,
// so they can stand in when the backend is unreachable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
)

// StatsKey is the key of the raw dashboard statistics payload
const StatsKey = "dashboard:stats"

// SnapshotKey is the key of the raw collection payload of kind
func SnapshotKey(kind domain.EntityKind) string {
	return "snapshot:" + string(kind)
}

// Entry is a cached payload and the time it was stored
type Entry struct {
	Value    []byte
	StoredAt time.Time
}

// Cache is a key/value store for raw payloads
type Cache interface {
	// Get returns the entry for key. The boolean is false when nothing is stored.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set replaces the entry for key
	Set(ctx context.Context, key string, value []byte) error
}

// Error represents a failed cache operation
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}
