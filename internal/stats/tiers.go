package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/activity"
	"github.com/ridwanfathin/price-dashboard-service/internal/cache"
	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/ridwanfathin/price-dashboard-service/internal/recordstore"
	"github.com/shopspring/decimal"
)

// ErrNoCachedStats is returned by the cache tier when nothing has been cached yet
var ErrNoCachedStats = errors.New("no cached dashboard stats")

const (
	defaultTopStores = 5
	defaultMonths    = 12
)

// Fetcher retrieves the raw dashboard stats payload from the backend
type Fetcher interface {
	FetchDashboardStats(ctx context.Context) ([]byte, error)
}

// Records exposes the current snapshots used by the local tier
type Records interface {
	Products() recordstore.Snapshot[domain.Product]
	Stores() recordstore.Snapshot[domain.Store]
	Receipts() recordstore.Snapshot[domain.Receipt]
}

// RemoteTier asks the backend and caches the raw payload it returns
func RemoteTier(fetcher Fetcher, c cache.Cache, logger *slog.Logger) Tier {
	if logger == nil {
		logger = slog.Default()
	}
	return Tier{
		Name: domain.SourceRemote,
		Resolve: func(ctx context.Context) (domain.DashboardStats, error) {
			raw, err := fetcher.FetchDashboardStats(ctx)
			if err != nil {
				return domain.DashboardStats{}, err
			}
			stats, err := Transform(raw)
			if err != nil {
				return domain.DashboardStats{}, err
			}
			if c != nil {
				if err := c.Set(ctx, cache.StatsKey, raw); err != nil {
					logger.Warn("failed to cache dashboard stats", "error", err)
				}
			}
			return stats, nil
		},
	}
}

// CacheTier replays the last payload stored by RemoteTier
func CacheTier(c cache.Cache) Tier {
	return Tier{
		Name: domain.SourceCache,
		Resolve: func(ctx context.Context) (domain.DashboardStats, error) {
			if c == nil {
				return domain.DashboardStats{}, ErrNoCachedStats
			}
			entry, ok, err := c.Get(ctx, cache.StatsKey)
			if err != nil {
				return domain.DashboardStats{}, err
			}
			if !ok {
				return domain.DashboardStats{}, ErrNoCachedStats
			}
			stats, err := Transform(entry.Value)
			if err != nil {
				return domain.DashboardStats{}, fmt.Errorf("cached stats: %w", err)
			}
			stats.GeneratedAt = entry.StoredAt
			return stats, nil
		},
	}
}

// LocalOptions configures the local recomputation
type LocalOptions struct {
	Activity *activity.Aggregator
	// Location decides which calendar month is "this month"; nil means time.Local
	Location *time.Location
	Now      func() time.Time
	// TopStores and Months bound the ranked store list and the monthly series; zero picks a default
	TopStores int
	Months    int
}

func (o LocalOptions) withDefaults() LocalOptions {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Activity == nil {
		o.Activity = activity.New(activity.Options{Location: o.Location, Now: o.Now})
	}
	if o.TopStores <= 0 {
		o.TopStores = defaultTopStores
	}
	if o.Months <= 0 {
		o.Months = defaultMonths
	}
	return o
}

// LocalTier recomputes the stats from the current record snapshots. It never fails.
func LocalTier(records Records, opts LocalOptions) Tier {
	opts = opts.withDefaults()
	return Tier{
		Name: domain.SourceLocal,
		Resolve: func(ctx context.Context) (domain.DashboardStats, error) {
			return Compute(records.Products().Items, records.Stores().Items, records.Receipts().Items, opts), nil
		},
	}
}

// Compute builds DashboardStats from raw collections
func Compute(products []domain.Product, stores []domain.Store, receipts []domain.Receipt, opts LocalOptions) domain.DashboardStats {
	opts = opts.withDefaults()
	now := opts.Now().In(opts.Location)

	stats := domain.EmptyDashboardStats(domain.SourceLocal, now)
	monthly := make(map[string]int64)

	for _, r := range receipts {
		spent := r.Spent()
		stats.TotalReceipts++
		stats.TotalSpent += spent

		switch r.Type {
		case domain.ReceiptScanned:
			stats.Receipts.Scanned++
		case domain.ReceiptManual:
			stats.Receipts.Manual++
		case domain.ReceiptArchived:
			stats.Receipts.Archived++
		}
		if r.Favorite {
			stats.Receipts.Favorites++
		}

		ts, ok := r.Timestamp(opts.Location)
		if !ok {
			continue
		}
		if ts.Year() == now.Year() && ts.Month() == now.Month() {
			stats.ThisMonthSpent += spent
		}
		monthly[ts.Format("2006-01")] += spent
	}

	if stats.TotalReceipts > 0 {
		stats.AverageReceipt = decimal.NewFromInt(stats.TotalSpent).
			Div(decimal.NewFromInt(stats.TotalReceipts)).
			Round(0).
			IntPart()
	}

	for _, p := range products {
		countEntity(&stats.Products, p.Status, p.Favorite)
	}
	for _, s := range stores {
		countEntity(&stats.Stores, s.Status, s.Favorite)
	}

	stats.MonthlySpending = monthlySeries(monthly, opts.Months)
	stats.TopStores = activity.TopStores(opts.Activity.RecomputeStoreStats(stores, receipts), opts.TopStores)
	return stats
}

// countEntity counts a record with no status as active
func countEntity(counts *domain.EntityCounts, status domain.Status, favorite bool) {
	counts.Total++
	if status == domain.StatusArchived {
		counts.Archived++
	} else {
		counts.Active++
	}
	if favorite {
		counts.Favorites++
	}
}

// monthlySeries returns the most recent months in chronological order
func monthlySeries(monthly map[string]int64, limit int) []domain.MonthlySpend {
	months := make([]string, 0, len(monthly))
	for month := range monthly {
		months = append(months, month)
	}
	sort.Strings(months)
	if len(months) > limit {
		months = months[len(months)-limit:]
	}

	series := make([]domain.MonthlySpend, 0, len(months))
	for _, month := range months {
		series = append(series, domain.MonthlySpend{Month: month, Amount: monthly[month]})
	}
	return series
}
