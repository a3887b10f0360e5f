// Package recordstore holds the current snapshot of every backend collection.
// Snapshots are immutable once published and are replaced wholesale on a successful refresh.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/cache"
	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Origin tells where a snapshot's data came from
type Origin string

const (
	OriginNone   Origin = "none"
	OriginRemote Origin = "remote"
	OriginCache  Origin = "cache"
)

// Snapshot is an immutable copy of one collection. Items must be treated as read-only.
type Snapshot[T any] struct {
	Items     []T
	FetchedAt time.Time
	Origin    Origin
}

// Info describes a snapshot without its items
type Info struct {
	Kind      domain.EntityKind `json:"kind"`
	Count     int               `json:"count"`
	FetchedAt *time.Time        `json:"fetchedAt,omitempty"`
	Origin    Origin            `json:"origin"`
}

// Source fetches raw collection payloads from the backend
type Source interface {
	FetchCollection(ctx context.Context, kind domain.EntityKind) ([]byte, error)
}

// RefreshError is returned when neither the backend nor the cache could provide a newer snapshot.
// The previous snapshot is still in place.
type RefreshError struct {
	Kind domain.EntityKind
	Err  error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *RefreshError) Unwrap() error {
	return e.Err
}

const defaultRefreshTimeout = time.Minute

// Store is the authoritative in-memory copy of products, stores and receipts
type Store struct {
	source Source
	cache  cache.Cache
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group

	// refreshTimeout bounds one shared refresh, which no single caller can cancel
	refreshTimeout time.Duration

	products atomic.Pointer[Snapshot[domain.Product]]
	stores   atomic.Pointer[Snapshot[domain.Store]]
	receipts atomic.Pointer[Snapshot[domain.Receipt]]
}

// New creates an empty record store
func New(source Source, c cache.Cache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &Store{
		source: source,
		cache:  c,
		logger: logger,
		now:    time.Now,

		refreshTimeout: defaultRefreshTimeout,
	}
}

// Products returns the current product snapshot without blocking
func (s *Store) Products() Snapshot[domain.Product] {
	return current(&s.products)
}

// Stores returns the current store snapshot without blocking
func (s *Store) Stores() Snapshot[domain.Store] {
	return current(&s.stores)
}

// Receipts returns the current receipt snapshot without blocking
func (s *Store) Receipts() Snapshot[domain.Receipt] {
	return current(&s.receipts)
}

// Info describes every snapshot
func (s *Store) Info() []Info {
	return []Info{
		info(domain.KindProducts, s.Products()),
		info(domain.KindStores, s.Stores()),
		info(domain.KindReceipts, s.Receipts()),
	}
}

// RefreshProducts reloads the product snapshot
func (s *Store) RefreshProducts(ctx context.Context) (Snapshot[domain.Product], error) {
	return refresh(ctx, s, domain.KindProducts, &s.products, nil)
}

// RefreshStores reloads the store snapshot
func (s *Store) RefreshStores(ctx context.Context) (Snapshot[domain.Store], error) {
	return refresh(ctx, s, domain.KindStores, &s.stores, nil)
}

// RefreshReceipts reloads the receipt snapshot, parsing formatted totals into amounts
func (s *Store) RefreshReceipts(ctx context.Context) (Snapshot[domain.Receipt], error) {
	return refresh(ctx, s, domain.KindReceipts, &s.receipts, domain.NormalizeReceipts)
}

// Refresh reloads the snapshot of one kind
func (s *Store) Refresh(ctx context.Context, kind domain.EntityKind) error {
	var err error
	switch kind {
	case domain.KindProducts:
		_, err = s.RefreshProducts(ctx)
	case domain.KindStores:
		_, err = s.RefreshStores(ctx)
	case domain.KindReceipts:
		_, err = s.RefreshReceipts(ctx)
	default:
		err = fmt.Errorf("unknown entity kind: %q", kind)
	}
	return err
}

// RefreshAll reloads every kind concurrently. Kinds refresh independently;
// a failure of one does not prevent the others from being replaced.
func (s *Store) RefreshAll(ctx context.Context) error {
	errs := make([]error, len(domain.AllKinds))
	var g errgroup.Group
	for i, kind := range domain.AllKinds {
		i, kind := i, kind
		g.Go(func() error {
			errs[i] = s.Refresh(ctx, kind)
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// Run refreshes every kind immediately and then at each interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if err := s.RefreshAll(ctx); err != nil {
		s.logger.Warn("initial snapshot refresh incomplete", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				s.logger.Warn("periodic snapshot refresh incomplete", "error", err)
			}
		}
	}
}

func current[T any](ptr *atomic.Pointer[Snapshot[T]]) Snapshot[T] {
	if snap := ptr.Load(); snap != nil {
		return *snap
	}
	return Snapshot[T]{Items: []T{}, Origin: OriginNone}
}

func info[T any](kind domain.EntityKind, snap Snapshot[T]) Info {
	i := Info{Kind: kind, Count: len(snap.Items), Origin: snap.Origin}
	if !snap.FetchedAt.IsZero() {
		fetchedAt := snap.FetchedAt
		i.FetchedAt = &fetchedAt
	}
	return i
}

// refresh joins or starts the shared refresh of kind. The shared work is detached from the
// caller that started it, so one caller going away cannot fail the others; each caller still
// stops waiting when its own ctx is done.
func refresh[T any](ctx context.Context, s *Store, kind domain.EntityKind, ptr *atomic.Pointer[Snapshot[T]], normalize func([]T)) (Snapshot[T], error) {
	ch := s.group.DoChan(string(kind), func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return refreshOnce(sharedCtx, s, kind, ptr, normalize)
	})

	select {
	case res := <-ch:
		snap, ok := res.Val.(Snapshot[T])
		if !ok {
			snap = current(ptr)
		}
		return snap, res.Err
	case <-ctx.Done():
		return current(ptr), &RefreshError{Kind: kind, Err: ctx.Err()}
	}
}

func refreshOnce[T any](ctx context.Context, s *Store, kind domain.EntityKind, ptr *atomic.Pointer[Snapshot[T]], normalize func([]T)) (Snapshot[T], error) {
	raw, err := s.source.FetchCollection(ctx, kind)
	if err == nil {
		items, decodeErr := decodeCollection[T](raw)
		if decodeErr == nil {
			if normalize != nil {
				normalize(items)
			}
			// cache first so a cached copy is never considered newer than the published one
			if cacheErr := s.cache.Set(ctx, cache.SnapshotKey(kind), raw); cacheErr != nil {
				s.logger.Warn("failed to cache snapshot payload", "kind", kind, "error", cacheErr)
			}
			snap := &Snapshot[T]{Items: items, FetchedAt: s.now(), Origin: OriginRemote}
			ptr.Store(snap)
			s.logger.Debug("snapshot refreshed", "kind", kind, "count", len(items))
			return *snap, nil
		}
		err = fmt.Errorf("failed to decode %s payload: %w", kind, decodeErr)
	}

	if snap, ok := fromCache(ctx, s, kind, ptr, normalize); ok {
		s.logger.Warn("backend unavailable, using cached snapshot",
			"kind", kind, "cached_at", snap.FetchedAt, "error", err)
		return snap, nil
	}

	return current(ptr), &RefreshError{Kind: kind, Err: err}
}

// fromCache publishes the cached payload of kind when it is newer than the current snapshot
func fromCache[T any](ctx context.Context, s *Store, kind domain.EntityKind, ptr *atomic.Pointer[Snapshot[T]], normalize func([]T)) (Snapshot[T], bool) {
	entry, ok, err := s.cache.Get(ctx, cache.SnapshotKey(kind))
	if err != nil {
		s.logger.Warn("failed to read cached snapshot", "kind", kind, "error", err)
		return Snapshot[T]{}, false
	}
	if !ok {
		return Snapshot[T]{}, false
	}
	if existing := ptr.Load(); existing != nil && !entry.StoredAt.After(existing.FetchedAt) {
		return Snapshot[T]{}, false
	}

	items, err := decodeCollection[T](entry.Value)
	if err != nil {
		s.logger.Warn("discarding undecodable cached snapshot", "kind", kind, "error", err)
		return Snapshot[T]{}, false
	}
	if normalize != nil {
		normalize(items)
	}

	snap := &Snapshot[T]{Items: items, FetchedAt: entry.StoredAt, Origin: OriginCache}
	ptr.Store(snap)
	return *snap, true
}

// decodeCollection accepts a bare JSON array or an object wrapping it in "data"
func decodeCollection[T any](raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	var items []T
	if trimmed[0] == '{' {
		var envelope struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		items = envelope.Data
	} else if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}
