// Package logging writes one access log entry per request.
package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// Log field names.
const (
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
)

// Config configures request logging middleware behavior.
type Config struct {
	Enabled bool
	// LogStart emits a debug entry before the handler runs.
	LogStart             bool
	ExcludedPathPrefixes []string
}

// DefaultConfig logs every request without start entries.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// Logging creates middleware with default configuration.
func Logging(log logger.Logger) router.MiddlewareFunc {
	return WithConfig(log, DefaultConfig())
}

// WithConfig creates request logging middleware. Requests failing with an error or a
// 5xx status are logged at error level, 4xx at warn, everything else at info.
func WithConfig(log logger.Logger, cfg Config) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			if !cfg.enabledFor(req.URL.Path) {
				return next(c)
			}

			start := time.Now()
			requestID := logger.RequestIDFromContext(req.Context())
			if cfg.LogStart {
				log.Debug("request started", requestFields(req, requestID)...)
			}

			err := next(c)
			status := c.Response().Status()
			fields := append(requestFields(req, requestID),
				FieldStatus, status,
				FieldDurationMS, time.Since(start).Milliseconds(),
			)

			switch {
			case err != nil:
				log.Error("request failed", append(fields, FieldError, err.Error())...)
			case status >= http.StatusInternalServerError:
				log.Error("request completed", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("request completed", fields...)
			default:
				log.Info("request completed", fields...)
			}
			return err
		}
	}
}

func (cfg Config) enabledFor(path string) bool {
	if !cfg.Enabled {
		return false
	}
	for _, prefix := range cfg.ExcludedPathPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func requestFields(req *http.Request, requestID string) []any {
	fields := []any{
		FieldRequestID, requestID,
		FieldMethod, req.Method,
		FieldPath, req.URL.Path,
		FieldRemoteAddr, req.RemoteAddr,
	}
	if req.URL.RawQuery != "" {
		fields = append(fields, FieldQuery, req.URL.RawQuery)
	}
	if ua := req.UserAgent(); ua != "" {
		fields = append(fields, FieldUserAgent, ua)
	}
	return fields
}
