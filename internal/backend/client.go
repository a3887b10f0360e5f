package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 2
	maxBodyBytes       = 32 << 20

	statsPath = "/dashboard/stats"
)

// Error represents a failed call to the backend API
type Error struct {
	Op         string // Operation that caused the error
	StatusCode int    // HTTP status, 0 when no response was received
	Err        error  // Original error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := "backend error: " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying: network failures, timeouts and 5xx responses
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var be *Error
	if errors.As(err, &be) && be.StatusCode != 0 {
		return be.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// Config holds configuration for the backend client
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration // per attempt
	MaxAttempts int
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client fetches raw payloads from the backend API.
// Payloads are returned verbatim so callers can cache exactly what was received.
type Client struct {
	baseURL     string
	token       string
	timeout     time.Duration
	maxAttempts int
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a new backend client
func NewClient(config *Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		token:       config.Token,
		timeout:     timeout,
		maxAttempts: attempts,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// FetchCollection returns the raw payload of GET /products, /stores or /receipts
func (c *Client) FetchCollection(ctx context.Context, kind domain.EntityKind) ([]byte, error) {
	return c.get(ctx, "fetch_"+string(kind), "/"+string(kind))
}

// FetchDashboardStats returns the raw payload of GET /dashboard/stats
func (c *Client) FetchDashboardStats(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "fetch_dashboard_stats", statsPath)
}

// get performs up to maxAttempts immediate attempts, retrying only transient failures
func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, &Error{Op: op, Err: errors.New("backend URL is not configured")}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, err := c.attempt(ctx, op, path)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) {
			break
		}
		if attempt < c.maxAttempts {
			c.logger.Warn("backend call failed, retrying",
				"op", op, "attempt", attempt, "max_attempts", c.maxAttempts, "error", err)
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, op, path string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(string(body), 200)),
		}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
