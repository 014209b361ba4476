// Package timeout bounds request handling with a context deadline.
package timeout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/neeprokriti/catalog-server/pkg/controller"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// Config configures request timeout middleware behavior.
type Config struct {
	Enabled              bool
	Default              time.Duration
	ExcludedPathPrefixes []string
}

// DefaultConfig returns default timeout middleware behavior.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Default: 15 * time.Second,
	}
}

// Middleware sets a deadline on the request context. A handler that gives up with
// context.DeadlineExceeded before writing gets a 504 error body.
func Middleware(cfg Config) router.MiddlewareFunc {
	if cfg.Default <= 0 {
		cfg.Default = DefaultConfig().Default
	}
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if !cfg.appliesTo(c.Request().URL.Path) {
				return next(c)
			}

			reqCtx, cancel := context.WithTimeout(c.Request().Context(), cfg.Default)
			defer cancel()

			c.SetRequest(c.Request().WithContext(reqCtx))
			err := next(c)
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
				return err
			}
			if c.Response().Written() {
				return nil
			}
			return controller.Error(c, context.DeadlineExceeded)
		}
	}
}

func (cfg Config) appliesTo(path string) bool {
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
