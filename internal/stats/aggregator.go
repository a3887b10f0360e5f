// Package stats resolves the dashboard summary through an ordered chain of tiers.
// The first tier that succeeds wins; the last tier recomputes locally and never fails.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/cache"
	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
)

// Tier is one attempt at producing dashboard statistics
type Tier struct {
	Name    domain.StatsSource
	Resolve func(ctx context.Context) (domain.DashboardStats, error)
}

// Aggregator tries each tier in order
type Aggregator struct {
	tiers  []Tier
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates an Aggregator over tiers
func NewAggregator(tiers []Tier, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{tiers: tiers, logger: logger, now: time.Now}
}

// Aggregate returns the result of the first tier that succeeds.
// When every tier fails it returns zero stats attributed to the local tier.
func (a *Aggregator) Aggregate(ctx context.Context) domain.DashboardStats {
	for _, tier := range a.tiers {
		stats, err := tier.Resolve(ctx)
		if err == nil {
			stats.Source = tier.Name
			if stats.GeneratedAt.IsZero() {
				stats.GeneratedAt = a.now()
			}
			return stats
		}
		a.logger.Warn("dashboard stats tier failed", "tier", tier.Name, "error", err)
	}

	a.logger.Error("every dashboard stats tier failed, returning empty stats")
	return domain.EmptyDashboardStats(domain.SourceLocal, a.now())
}

// Config wires the standard remote, cache and local chain
type Config struct {
	Fetcher Fetcher
	Cache   cache.Cache
	Records Records
	Local   LocalOptions
	Logger  *slog.Logger
}

// New creates an Aggregator trying the backend, then the cached payload, then local recomputation
func New(config *Config) *Aggregator {
	var tiers []Tier
	if config.Fetcher != nil {
		tiers = append(tiers, RemoteTier(config.Fetcher, config.Cache, config.Logger))
	}
	if config.Cache != nil {
		tiers = append(tiers, CacheTier(config.Cache))
	}
	tiers = append(tiers, LocalTier(config.Records, config.Local))

	a := NewAggregator(tiers, config.Logger)
	if config.Local.Now != nil {
		a.now = config.Local.Now
	}
	return a
}
