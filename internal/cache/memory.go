package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps entries in process memory. Entries are lost on restart.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns a copy of the entry stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, &Error{Op: "get", Key: key, Err: err}
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}

	return Entry{Value: append([]byte(nil), entry.Value...), StoredAt: entry.StoredAt}, true, nil
}

// Set stores a copy of value under key
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}

	c.mu.Lock()
	c.entries[key] = Entry{Value: append([]byte(nil), value...), StoredAt: c.now()}
	c.mu.Unlock()
	return nil
}
