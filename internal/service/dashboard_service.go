package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ridwanfathin/price-dashboard-service/internal/activity"
	"github.com/ridwanfathin/price-dashboard-service/internal/comparison"
	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/ridwanfathin/price-dashboard-service/internal/export"
	"github.com/ridwanfathin/price-dashboard-service/internal/recordstore"
	"github.com/ridwanfathin/price-dashboard-service/internal/stats"
)

// DashboardServiceError represents an error in the dashboard service
type DashboardServiceError struct {
	Op  string
	Err error
}

func (e *DashboardServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *DashboardServiceError) Unwrap() error {
	return e.Err
}

// ErrUnknownKind is returned when a snapshot refresh names an entity kind that does not exist
var ErrUnknownKind = errors.New("unknown entity kind")

// DashboardService defines the read models served to the presentation layer
type DashboardService interface {
	// Price comparison
	CompareProducts(ctx context.Context, filter comparison.Filter, sort comparison.SortKey) ([]domain.PriceComparison, error)
	ExportComparisons(ctx context.Context, filter comparison.Filter, sort comparison.SortKey) ([]byte, error)

	// Aggregates
	GetDashboardStats(ctx context.Context) (domain.DashboardStats, error)
	GetStoreActivity(ctx context.Context) ([]domain.Store, error)

	// Snapshot management
	ListSnapshots(ctx context.Context) []recordstore.Info
	RefreshSnapshots(ctx context.Context) ([]recordstore.Info, error)
	RefreshSnapshot(ctx context.Context, kind string) (recordstore.Info, error)
}

// DashboardServiceImpl implements the DashboardService interface
type DashboardServiceImpl struct {
	records  *recordstore.Store
	stats    *stats.Aggregator
	activity *activity.Aggregator
	exporter *export.Service
	logger   *slog.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(records *recordstore.Store, statsAggregator *stats.Aggregator, activityAggregator *activity.Aggregator, exporter *export.Service, logger *slog.Logger) DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if activityAggregator == nil {
		activityAggregator = activity.New(activity.Options{})
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &DashboardServiceImpl{
		records:  records,
		stats:    statsAggregator,
		activity: activityAggregator,
		exporter: exporter,
		logger:   logger,
	}
}

// CompareProducts compares the current product snapshot
func (s *DashboardServiceImpl) CompareProducts(ctx context.Context, filter comparison.Filter, sort comparison.SortKey) ([]domain.PriceComparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DashboardServiceError{Op: "compare_products", Err: err}
	}
	products := s.records.Products()
	return comparison.Apply(comparison.Compare(products.Items), filter, sort), nil
}

// ExportComparisons renders the same list as CompareProducts as an XLSX workbook
func (s *DashboardServiceImpl) ExportComparisons(ctx context.Context, filter comparison.Filter, sort comparison.SortKey) ([]byte, error) {
	comparisons, err := s.CompareProducts(ctx, filter, sort)
	if err != nil {
		return nil, err
	}

	data, err := s.exporter.ComparisonsXLSX(ctx, comparisons)
	if err != nil {
		return nil, &DashboardServiceError{Op: "export_comparisons", Err: err}
	}
	return data, nil
}

// GetDashboardStats resolves the dashboard summary; it only fails when ctx is done
func (s *DashboardServiceImpl) GetDashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.DashboardStats{}, &DashboardServiceError{Op: "get_dashboard_stats", Err: err}
	}
	return s.stats.Aggregate(ctx), nil
}

// GetStoreActivity recomputes store counters from the current stores and receipts
func (s *DashboardServiceImpl) GetStoreActivity(ctx context.Context) ([]domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DashboardServiceError{Op: "get_store_activity", Err: err}
	}
	stores := s.records.Stores()
	receipts := s.records.Receipts()
	return s.activity.RecomputeStoreStats(stores.Items, receipts.Items), nil
}

// ListSnapshots describes every snapshot held in memory
func (s *DashboardServiceImpl) ListSnapshots(ctx context.Context) []recordstore.Info {
	return s.records.Info()
}

// RefreshSnapshots reloads every kind. The returned info is current even when some kinds failed.
func (s *DashboardServiceImpl) RefreshSnapshots(ctx context.Context) ([]recordstore.Info, error) {
	if err := s.records.RefreshAll(ctx); err != nil {
		s.logger.Warn("snapshot refresh incomplete", "error", err)
		return s.records.Info(), &DashboardServiceError{Op: "refresh_snapshots", Err: err}
	}
	return s.records.Info(), nil
}

// RefreshSnapshot reloads one kind
func (s *DashboardServiceImpl) RefreshSnapshot(ctx context.Context, kind string) (recordstore.Info, error) {
	entityKind, err := domain.ParseEntityKind(kind)
	if err != nil {
		return recordstore.Info{}, &DashboardServiceError{Op: "refresh_snapshot", Err: fmt.Errorf("%w: %q", ErrUnknownKind, kind)}
	}

	refreshErr := s.records.Refresh(ctx, entityKind)
	info := s.snapshotInfo(entityKind)
	if refreshErr != nil {
		s.logger.Warn("snapshot refresh failed", "kind", entityKind, "error", refreshErr)
		return info, &DashboardServiceError{Op: "refresh_snapshot", Err: refreshErr}
	}
	return info, nil
}

func (s *DashboardServiceImpl) snapshotInfo(kind domain.EntityKind) recordstore.Info {
	for _, info := range s.records.Info() {
		if info.Kind == kind {
			return info
		}
	}
	return recordstore.Info{Kind: kind, Origin: recordstore.OriginNone}
}
