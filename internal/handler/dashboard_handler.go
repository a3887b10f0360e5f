package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/price-dashboard-service/internal/currency"
	"github.com/ridwanfathin/price-dashboard-service/internal/model"
	"github.com/ridwanfathin/price-dashboard-service/internal/recordstore"
	"github.com/ridwanfathin/price-dashboard-service/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler handles HTTP requests for comparisons, dashboard stats and snapshots
type DashboardHandler struct {
	dashboardService service.DashboardService
	currencySuffix   string
	logger           *slog.Logger
	now              func() time.Time
}

// NewDashboardHandler creates a new dashboard handler.
// currencySuffix is appended to formatted amounts; empty selects currency.DefaultSuffix.
func NewDashboardHandler(dashboardService service.DashboardService, currencySuffix string, logger *slog.Logger) *DashboardHandler {
	if currencySuffix == "" {
		currencySuffix = currency.DefaultSuffix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		dashboardService: dashboardService,
		currencySuffix:   currencySuffix,
		logger:           logger,
		now:              time.Now,
	}
}

// RegisterRoutes registers the dashboard API routes on the /v1 group
func (h *DashboardHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/comparisons", h.ListComparisons)
	v1.GET("/comparisons/export", h.ExportComparisons)
	v1.GET("/dashboard/stats", h.GetDashboardStats)
	v1.GET("/stores/activity", h.GetStoreActivity)
	v1.GET("/snapshots", h.ListSnapshots)
	v1.POST("/snapshots/refresh", h.RefreshSnapshots)
	v1.POST("/snapshots/:kind/refresh", h.RefreshSnapshot)
}

// Health handles the GET /health endpoint
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} model.HealthResponse "Service is up"
// @Router /health [get]
func (h *DashboardHandler) Health(c *gin.Context) {
	respondOK(c, model.HealthResponse{
		Status: "ok",
		Time:   h.now().UTC().Format(time.RFC3339),
	})
}

// ListComparisons handles the GET /v1/comparisons endpoint
// @Summary Compare product prices across stores
// @Description Group products by name and compute min, max, average, spread and trend per group
// @Tags comparisons
// @Produce json
// @Param filter query string false "all, variation or no_variation (default: all)"
// @Param sort query string false "name, average_price, spread_percent or stores_count (default: name)"
// @Success 200 {object} model.ComparisonListResponse "Comparison list"
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/comparisons [get]
func (h *DashboardHandler) ListComparisons(c *gin.Context) {
	filter, sort, details := parseComparisonQuery(c)
	if len(details) > 0 {
		respondBadRequest(c, ErrInvalidQueryParams, details...)
		return
	}

	comparisons, err := h.dashboardService.CompareProducts(c.Request.Context(), filter, sort)
	if err != nil {
		h.handleServiceError(c, "failed_to_compare_products", err, ErrInternalServer)
		return
	}

	respondOK(c, model.NewComparisonListResponse(comparisons, string(filter), string(sort)))
}

// ExportComparisons handles the GET /v1/comparisons/export endpoint
// @Summary Export product comparisons
// @Description Download the comparison list as an XLSX workbook
// @Tags comparisons
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param filter query string false "all, variation or no_variation (default: all)"
// @Param sort query string false "name, average_price, spread_percent or stores_count (default: name)"
// @Success 200 {file} file "XLSX workbook"
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/comparisons/export [get]
func (h *DashboardHandler) ExportComparisons(c *gin.Context) {
	filter, sort, details := parseComparisonQuery(c)
	if len(details) > 0 {
		respondBadRequest(c, ErrInvalidQueryParams, details...)
		return
	}

	data, err := h.dashboardService.ExportComparisons(c.Request.Context(), filter, sort)
	if err != nil {
		h.handleServiceError(c, "failed_to_export_comparisons", err, ErrExportFailed)
		return
	}

	filename := fmt.Sprintf("price-comparisons-%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(StatusOK, xlsxContentType, data)
}

// GetDashboardStats handles the GET /v1/dashboard/stats endpoint
// @Summary Get dashboard statistics
// @Description Summary from the backend, the last cached copy, or a local recomputation, in that order
// @Tags dashboard
// @Produce json
// @Success 200 {object} model.DashboardStatsResponse "Dashboard statistics"
// @Failure 503 {object} model.ErrorResponse "Request cancelled"
// @Router /v1/dashboard/stats [get]
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.dashboardService.GetDashboardStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, "failed_to_get_dashboard_stats", err, ErrInternalServer)
		return
	}

	var resp model.DashboardStatsResponse
	resp.FromDomain(stats, h.currencySuffix)
	respondOK(c, resp)
}

// GetStoreActivity handles the GET /v1/stores/activity endpoint
// @Summary Get store activity
// @Description Per-store receipt count, total spend and last visit recomputed from all receipts
// @Tags stores
// @Produce json
// @Success 200 {object} model.StoreActivityListResponse "Stores with activity counters"
// @Failure 503 {object} model.ErrorResponse "Request cancelled"
// @Router /v1/stores/activity [get]
func (h *DashboardHandler) GetStoreActivity(c *gin.Context) {
	stores, err := h.dashboardService.GetStoreActivity(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, "failed_to_get_store_activity", err, ErrInternalServer)
		return
	}

	respondOK(c, model.NewStoreActivityListResponse(stores, h.currencySuffix))
}

// ListSnapshots handles the GET /v1/snapshots endpoint
// @Summary List in-memory snapshots
// @Tags snapshots
// @Produce json
// @Success 200 {object} model.SnapshotListResponse "Snapshot info"
// @Router /v1/snapshots [get]
func (h *DashboardHandler) ListSnapshots(c *gin.Context) {
	respondOK(c, model.NewSnapshotListResponse(h.dashboardService.ListSnapshots(c.Request.Context())))
}

// RefreshSnapshots handles the POST /v1/snapshots/refresh endpoint
// @Summary Refresh every snapshot
// @Description Reload products, stores and receipts from the backend, falling back to the cache
// @Tags snapshots
// @Produce json
// @Success 200 {object} model.SnapshotListResponse "Every snapshot refreshed"
// @Failure 502 {object} model.ErrorResponse "At least one kind could not be refreshed"
// @Router /v1/snapshots/refresh [post]
func (h *DashboardHandler) RefreshSnapshots(c *gin.Context) {
	infos, err := h.dashboardService.RefreshSnapshots(c.Request.Context())
	if err != nil {
		h.logError(c, "failed_to_refresh_snapshots", err, nil)
		respondBadGateway(c, ErrRefreshFailed, refreshErrorDetails(err)...)
		return
	}

	respondOK(c, model.NewSnapshotListResponse(infos))
}

// RefreshSnapshot handles the POST /v1/snapshots/:kind/refresh endpoint
// @Summary Refresh one snapshot
// @Tags snapshots
// @Produce json
// @Param kind path string true "products, stores or receipts"
// @Success 200 {object} model.SnapshotResponse "Snapshot refreshed"
// @Failure 404 {object} model.ErrorResponse "Unknown snapshot kind"
// @Failure 502 {object} model.ErrorResponse "Backend refresh failed"
// @Router /v1/snapshots/{kind}/refresh [post]
func (h *DashboardHandler) RefreshSnapshot(c *gin.Context) {
	kind, err := getPathParam(c, "kind")
	if err != nil {
		respondBadRequest(c, err.Error(), newErrorDetail("kind", "kind is required"))
		return
	}

	info, err := h.dashboardService.RefreshSnapshot(c.Request.Context(), kind)
	if err != nil {
		if errors.Is(err, service.ErrUnknownKind) {
			respondNotFound(c, ErrUnknownSnapshot, newErrorDetail("kind", "must be products, stores or receipts"))
			return
		}
		h.logError(c, "failed_to_refresh_snapshot", err, map[string]interface{}{"kind": kind})
		respondBadGateway(c, ErrRefreshFailed, refreshErrorDetails(err)...)
		return
	}

	var resp model.SnapshotResponse
	resp.FromInfo(info)
	respondOK(c, resp)
}

func (h *DashboardHandler) handleServiceError(c *gin.Context, event string, err error, message string) {
	if isCancelled(err) {
		respondServiceUnavailable(c, ErrRequestCancelled)
		return
	}
	h.logError(c, event, err, nil)
	respondInternalServerError(c, message)
}

// refreshErrorDetails lists one detail per kind that failed to refresh
func refreshErrorDetails(err error) []model.ErrorDetail {
	var svcErr *service.DashboardServiceError
	if errors.As(err, &svcErr) && svcErr.Err != nil {
		err = svcErr.Err
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	var details []model.ErrorDetail
	for _, e := range errs {
		var refreshErr *recordstore.RefreshError
		if errors.As(e, &refreshErr) {
			details = append(details, newErrorDetail(string(refreshErr.Kind), refreshErr.Err.Error()))
		}
	}
	return details
}
