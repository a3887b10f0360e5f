package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/price-dashboard-service/internal/comparison"
	"github.com/ridwanfathin/price-dashboard-service/internal/middleware"
	"github.com/ridwanfathin/price-dashboard-service/internal/model"
)

// getPathParam retrieves a path parameter and validates it's not empty
func getPathParam(c *gin.Context, paramName string) (string, error) {
	value := c.Param(paramName)
	if value == "" {
		return "", fmt.Errorf("%s is required", paramName)
	}
	return value, nil
}

// parseComparisonQuery reads the filter and sort query parameters
func parseComparisonQuery(c *gin.Context) (comparison.Filter, comparison.SortKey, []model.ErrorDetail) {
	var details []model.ErrorDetail

	filter, err := comparison.ParseFilter(c.Query("filter"))
	if err != nil {
		details = append(details, newErrorDetail("filter", err.Error()))
	}
	sort, err := comparison.ParseSort(c.Query("sort"))
	if err != nil {
		details = append(details, newErrorDetail("sort", err.Error()))
	}
	return filter, sort, details
}

// isCancelled reports whether err comes from the client going away
func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// logError logs a handler failure with the request id attached
func (h *DashboardHandler) logError(c *gin.Context, event string, err error, fields map[string]interface{}) {
	attrs := []any{
		"event", event,
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if requestID := c.GetString(middleware.RequestIDKey); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	for key, value := range fields {
		attrs = append(attrs, key, value)
	}
	h.logger.ErrorContext(c.Request.Context(), "request failed", attrs...)
}
