package recordstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/cache"
	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a fixed payload or error per kind
type fakeSource struct {
	mu       sync.Mutex
	payloads map[domain.EntityKind][]byte
	errs     map[domain.EntityKind]error
	calls    int32
	delay    time.Duration
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		payloads: map[domain.EntityKind][]byte{},
		errs:     map[domain.EntityKind]error{},
	}
}

func (f *fakeSource) set(kind domain.EntityKind, payload string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[kind] = []byte(payload)
	f.errs[kind] = err
}

func (f *fakeSource) FetchCollection(ctx context.Context, kind domain.EntityKind) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	return f.payloads[kind], nil
}

var errBackendDown = errors.New("backend down")

func TestCurrentIsEmptyBeforeRefresh(t *testing.T) {
	store := New(newFakeSource(), nil, nil)

	products := store.Products()
	assert.NotNil(t, products.Items)
	assert.Empty(t, products.Items)
	assert.Equal(t, OriginNone, products.Origin)
	assert.True(t, products.FetchedAt.IsZero())

	for _, i := range store.Info() {
		assert.Equal(t, 0, i.Count)
		assert.Nil(t, i.FetchedAt)
	}
}

func TestRefreshPublishesRemoteSnapshot(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindProducts, `[{"id":"p1","name":"Lait","storeId":"s1","price":{"amount":750,"currency":"XOF"}}]`, nil)
	c := cache.NewMemoryCache()
	store := New(source, c, nil)

	snap, err := store.RefreshProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, OriginRemote, snap.Origin)
	assert.Equal(t, "750", snap.Items[0].Price.Amount.String())
	assert.Equal(t, snap, store.Products())

	entry, ok, err := c.Get(context.Background(), cache.SnapshotKey(domain.KindProducts))
	require.NoError(t, err)
	require.True(t, ok, "raw payload should be cached verbatim")
	assert.Contains(t, string(entry.Value), `"Lait"`)
}

func TestRefreshAcceptsDataEnvelope(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindStores, `{"data":[{"id":"s1","name":"Carrefour"},{"id":"s2","name":"Auchan"}]}`, nil)
	store := New(source, nil, nil)

	snap, err := store.RefreshStores(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
}

func TestRefreshReceiptsParsesTotals(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindReceipts, `[
		{"id":"r1","store":"Carrefour","total":"18 450 F CFA"},
		{"id":"r2","total":2500},
		{"id":"r3","total":"2 000 F CFA","amount":7}
	]`, nil)
	store := New(source, nil, nil)

	snap, err := store.RefreshReceipts(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 3)
	assert.Equal(t, int64(18450), snap.Items[0].Amount)
	assert.Equal(t, int64(2500), snap.Items[1].Amount)
	assert.Equal(t, int64(2000), snap.Items[2].Amount, "a wire amount must not override the total")
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindProducts, `[{"id":"p1","name":"Lait"}]`, nil)
	store := New(source, nil, nil)

	first, err := store.RefreshProducts(context.Background())
	require.NoError(t, err)

	source.set(domain.KindProducts, "", errBackendDown)
	snap, err := store.RefreshProducts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackendDown)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, domain.KindProducts, refreshErr.Kind)

	assert.Equal(t, first, snap)
	assert.Equal(t, first, store.Products())
}

func TestMalformedPayloadKeepsPreviousSnapshot(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindStores, `[{"id":"s1","name":"Carrefour"}]`, nil)
	store := New(source, nil, nil)

	_, err := store.RefreshStores(context.Background())
	require.NoError(t, err)

	source.set(domain.KindStores, `<html>maintenance</html>`, nil)
	_, err = store.RefreshStores(context.Background())
	require.Error(t, err)
	assert.Len(t, store.Stores().Items, 1)
}

func TestRefreshFallsBackToCache(t *testing.T) {
	c := cache.NewMemoryCache()
	require.NoError(t, c.Set(context.Background(), cache.SnapshotKey(domain.KindReceipts),
		[]byte(`[{"id":"r1","total":"1 000 F CFA"}]`)))

	source := newFakeSource()
	source.set(domain.KindReceipts, "", errBackendDown)
	store := New(source, c, nil)

	snap, err := store.RefreshReceipts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginCache, snap.Origin)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(1000), snap.Items[0].Amount)
}

func TestCacheIsNotNewerThanPublishedSnapshot(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindProducts, `[{"id":"p1"},{"id":"p2"}]`, nil)
	store := New(source, cache.NewMemoryCache(), nil)

	_, err := store.RefreshProducts(context.Background())
	require.NoError(t, err)

	source.set(domain.KindProducts, "", errBackendDown)
	_, err = store.RefreshProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, OriginRemote, store.Products().Origin)
}

func TestKindsRefreshIndependently(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindProducts, `[{"id":"p1"}]`, nil)
	source.set(domain.KindStores, "", errBackendDown)
	source.set(domain.KindReceipts, `[{"id":"r1"},{"id":"r2"}]`, nil)
	store := New(source, nil, nil)

	err := store.RefreshAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackendDown)

	assert.Len(t, store.Products().Items, 1)
	assert.Empty(t, store.Stores().Items)
	assert.Len(t, store.Receipts().Items, 2)
}

func TestConcurrentRefreshesAreCollapsed(t *testing.T) {
	source := newFakeSource()
	source.delay = 50 * time.Millisecond
	source.set(domain.KindProducts, `[{"id":"p1"}]`, nil)
	store := New(source, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RefreshProducts(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&source.calls), int32(5))
	assert.Len(t, store.Products().Items, 1)
}

func TestCollapsedRefreshOutlivesCallerDeadline(t *testing.T) {
	source := newFakeSource()
	source.delay = 200 * time.Millisecond
	source.set(domain.KindProducts, `[{"id":"p1"},{"id":"p2"}]`, nil)
	store := New(source, nil, nil)

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var errShort, errLive error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errShort = store.RefreshProducts(shortCtx)
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		_, errLive = store.RefreshProducts(context.Background())
	}()
	wg.Wait()

	assert.ErrorIs(t, errShort, context.DeadlineExceeded)
	var refreshErr *RefreshError
	assert.ErrorAs(t, errShort, &refreshErr)

	require.NoError(t, errLive)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	assert.Len(t, store.Products().Items, 2)
	assert.Equal(t, OriginRemote, store.Products().Origin)
}

func TestCancelledCallerDoesNotStopRefresh(t *testing.T) {
	source := newFakeSource()
	source.delay = 50 * time.Millisecond
	source.set(domain.KindStores, `[{"id":"s1","name":"Carrefour"}]`, nil)
	store := New(source, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := store.RefreshStores(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Eventually(t, func() bool {
		return len(store.Stores().Items) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRefreshUnknownKind(t *testing.T) {
	store := New(newFakeSource(), nil, nil)
	assert.Error(t, store.Refresh(context.Background(), domain.EntityKind("orders")))
}

func TestReadersNeverSeePartialSnapshots(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindProducts, `[{"id":"a"},{"id":"b"},{"id":"c"}]`, nil)
	store := New(source, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			n := len(store.Products().Items)
			if n != 0 && n != 3 {
				t.Errorf("observed partial snapshot of %d items", n)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		_, err := store.RefreshProducts(context.Background())
		require.NoError(t, err)
	}
	cancel()
	<-done
}

func TestRunStopsWithContext(t *testing.T) {
	source := newFakeSource()
	source.set(domain.KindProducts, `[]`, nil)
	source.set(domain.KindStores, `[]`, nil)
	source.set(domain.KindReceipts, `[]`, nil)
	store := New(source, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		store.Run(ctx, 10*time.Millisecond)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	assert.Greater(t, atomic.LoadInt32(&source.calls), int32(3))
	assert.Equal(t, OriginRemote, store.Receipts().Origin)
}
