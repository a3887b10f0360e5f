package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody caps how much of a non-JSON body ends up in a log record
const maxLoggedBody = 1000

const redactedValue = "[REDACTED]"

// sensitivePattern matches header and JSON field names whose values never reach the logs.
// Bare "key" is not matched: comparison payloads carry a "key" field.
var sensitivePattern = regexp.MustCompile(`(?i)password|token|api[-_]?key|secret|authorization|bearer|credential|cookie|session`)

// bodyCapture tees the response body into a buffer
type bodyCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// LoggerConfig holds configuration for the logger middleware
type LoggerConfig struct {
	Logger *slog.Logger
	// LogBodies adds redacted JSON request and response bodies to each record
	LogBodies bool
}

// RequestResponseLogger creates a middleware that logs every API request with one structured record
func RequestResponseLogger(config LoggerConfig) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		startTime := time.Now()

		var requestBody []byte
		var capture *bodyCapture
		if config.LogBodies {
			if c.Request.Body != nil {
				requestBody, _ = io.ReadAll(c.Request.Body)
				c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
			}
			capture = &bodyCapture{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
			c.Writer = capture
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(startTime)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		}
		if requestID := c.GetString(RequestIDKey); requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, slog.String("query", query))
		}
		if config.LogBodies {
			attrs = append(attrs, slog.Any("headers", redactHeaders(c.Request.Header)))
			if len(requestBody) > 0 {
				attrs = append(attrs, slog.Any("request_body", parseAndRedactBody(requestBody)))
			}
			if isJSON(c.Writer.Header().Get("Content-Type")) && capture.body.Len() > 0 {
				attrs = append(attrs, slog.Any("response_body", parseAndRedactBody(capture.body.Bytes())))
			}
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}

		logger.LogAttrs(c.Request.Context(), levelFor(status), "http request", attrs...)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// redactHeaders flattens headers, hiding sensitive values
func redactHeaders(headers map[string][]string) map[string]string {
	redacted := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitivePattern.MatchString(key) {
			redacted[key] = redactedValue
			continue
		}
		redacted[key] = strings.Join(values, ", ")
	}
	return redacted
}

// parseAndRedactBody decodes a JSON body with sensitive fields hidden.
// Anything that is not JSON is logged as truncated text.
func parseAndRedactBody(body []byte) any {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		if len(body) > maxLoggedBody {
			return string(body[:maxLoggedBody]) + "... (truncated)"
		}
		return string(body)
	}
	return redact(decoded)
}

func redact(data any) any {
	switch v := data.(type) {
	case map[string]any:
		for key, value := range v {
			if sensitivePattern.MatchString(key) {
				v[key] = redactedValue
				continue
			}
			v[key] = redact(value)
		}
	case []any:
		for i, item := range v {
			v[i] = redact(item)
		}
	}
	return data
}
