// Package activity derives per-store visit and spend counters from receipts.
//
// Receipts reference stores by free text only, so a receipt is attributed to a store when its
// normalized store name matches, or failing that when its normalized address matches.
package activity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
)

// LastVisitMode selects how Store.LastVisit is derived
type LastVisitMode string

const (
	// LastVisitNow stamps every matched store with the aggregation time
	LastVisitNow LastVisitMode = "now"
	// LastVisitLatestReceipt uses the most recent parsable receipt date among the matches
	LastVisitLatestReceipt LastVisitMode = "latest_receipt"
)

// ParseLastVisitMode maps a configuration value to a LastVisitMode. Empty selects LastVisitNow.
func ParseLastVisitMode(s string) (LastVisitMode, error) {
	switch LastVisitMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", LastVisitNow:
		return LastVisitNow, nil
	case LastVisitLatestReceipt:
		return LastVisitLatestReceipt, nil
	default:
		return "", fmt.Errorf("unknown last visit mode: %q", s)
	}
}

// Options configures an Aggregator
type Options struct {
	LastVisitMode LastVisitMode
	// Location is used to read receipt dates; nil means time.Local
	Location *time.Location
	Now      func() time.Time
}

// Aggregator recomputes store counters from the full receipt set on every call
type Aggregator struct {
	mode     LastVisitMode
	location *time.Location
	now      func() time.Time
}

// New creates an Aggregator
func New(opts Options) *Aggregator {
	a := &Aggregator{
		mode:     opts.LastVisitMode,
		location: opts.Location,
		now:      opts.Now,
	}
	if a.mode == "" {
		a.mode = LastVisitNow
	}
	if a.location == nil {
		a.location = time.Local
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

type normalizedReceipt struct {
	store   string
	address string
	spent   int64
	receipt *domain.Receipt
}

// RecomputeStoreStats returns a copy of stores with ReceiptsCount, TotalSpent and LastVisit
// rebuilt from receipts. Neither input slice is modified.
func (a *Aggregator) RecomputeStoreStats(stores []domain.Store, receipts []domain.Receipt) []domain.Store {
	now := a.now()

	byName := make(map[string][]int)
	byAddress := make(map[string][]int)
	normalized := make([]normalizedReceipt, len(receipts))
	for i := range receipts {
		r := &receipts[i]
		n := normalizedReceipt{
			store:   domain.NormalizeName(r.Store),
			address: domain.NormalizeName(r.Address),
			spent:   r.Spent(),
			receipt: r,
		}
		normalized[i] = n
		if n.store != "" {
			byName[n.store] = append(byName[n.store], i)
		}
		if n.address != "" {
			byAddress[n.address] = append(byAddress[n.address], i)
		}
	}

	out := make([]domain.Store, len(stores))
	for i, store := range stores {
		name := domain.NormalizeName(store.Name)
		address := domain.NormalizeName(store.Address)

		var matches []int
		if name != "" {
			matches = append(matches, byName[name]...)
		}
		if address != "" {
			for _, idx := range byAddress[address] {
				// already counted through the name
				if name != "" && normalized[idx].store == name {
					continue
				}
				matches = append(matches, idx)
			}
		}

		store.ReceiptsCount = 0
		store.TotalSpent = 0
		store.LastVisit = nil
		for _, idx := range matches {
			store.ReceiptsCount++
			store.TotalSpent += normalized[idx].spent
		}
		if store.ReceiptsCount > 0 {
			store.LastVisit = a.lastVisit(now, normalized, matches)
		}
		out[i] = store
	}
	return out
}

func (a *Aggregator) lastVisit(now time.Time, normalized []normalizedReceipt, matches []int) *time.Time {
	if a.mode != LastVisitLatestReceipt {
		visit := now
		return &visit
	}

	var latest time.Time
	found := false
	for _, idx := range matches {
		ts, ok := normalized[idx].receipt.Timestamp(a.location)
		if !ok {
			continue
		}
		if !found || ts.After(latest) {
			latest, found = ts, true
		}
	}
	if !found {
		return nil
	}
	return &latest
}

// TopStores ranks stores with at least one receipt by total spend, highest first.
// Ties are broken by receipt count and then by name. n <= 0 yields an empty list.
func TopStores(stores []domain.Store, n int) []domain.StoreSpend {
	ranked := make([]domain.Store, 0, len(stores))
	for _, s := range stores {
		if s.ReceiptsCount > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TotalSpent != b.TotalSpent {
			return a.TotalSpent > b.TotalSpent
		}
		if a.ReceiptsCount != b.ReceiptsCount {
			return a.ReceiptsCount > b.ReceiptsCount
		}
		return a.Name < b.Name
	})

	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	top := make([]domain.StoreSpend, 0, len(ranked))
	for _, s := range ranked {
		top = append(top, domain.StoreSpend{
			Name:          s.Name,
			ReceiptsCount: int64(s.ReceiptsCount),
			TotalSpent:    s.TotalSpent,
		})
	}
	return top
}
