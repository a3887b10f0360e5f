package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/price-dashboard-service/internal/model"
)

// HTTP status codes as constants for consistency
const (
	StatusOK                  = http.StatusOK
	StatusBadRequest          = http.StatusBadRequest
	StatusNotFound            = http.StatusNotFound
	StatusInternalServerError = http.StatusInternalServerError
	StatusBadGateway          = http.StatusBadGateway
	StatusServiceUnavailable  = http.StatusServiceUnavailable
)

// Common error messages
const (
	ErrInvalidQueryParams = "Invalid query parameters"
	ErrUnknownSnapshot    = "Unknown snapshot kind"
	ErrInternalServer     = "Internal server error"
	ErrRefreshFailed      = "Backend refresh failed, previous data kept"
	ErrExportFailed       = "Failed to export comparisons"
	ErrRequestCancelled   = "Request cancelled"
)

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, message string, details ...model.ErrorDetail) {
	response := model.ErrorResponse{
		Status:  http.StatusText(statusCode),
		Message: message,
		Details: details,
	}
	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, StatusBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, StatusNotFound, message, details...)
}

// respondInternalServerError sends a 500 Internal Server Error response
func respondInternalServerError(c *gin.Context, message string) {
	respondWithError(c, StatusInternalServerError, message)
}

// respondBadGateway sends a 502 Bad Gateway response
func respondBadGateway(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, StatusBadGateway, message, details...)
}

// respondServiceUnavailable sends a 503 Service Unavailable response
func respondServiceUnavailable(c *gin.Context, message string) {
	respondWithError(c, StatusServiceUnavailable, message)
}

// respondOK sends a 200 OK response with data
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(StatusOK, data)
}

// newErrorDetail creates a new error detail
func newErrorDetail(field, message string) model.ErrorDetail {
	return model.ErrorDetail{
		Field:   field,
		Message: message,
	}
}
