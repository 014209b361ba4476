// Package recovery turns handler panics into JSON 500 responses.
package recovery

import (
	"fmt"
	"runtime/debug"

	"github.com/neeprokriti/catalog-server/pkg/controller"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// Recovery creates middleware that recovers from panics in HTTP handlers, logs the
// panic with its stack trace and answers 500 if nothing was written yet.
func Recovery(log logger.Logger) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				ctx := c.Request().Context()
				log.WithContext(ctx).Error("panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
				)

				if c.Response().Written() {
					return
				}
				cause := fmt.Errorf("panic: %v", r)
				if writeErr := controller.Error(c, controller.NewInternalError("an unexpected error occurred", cause)); writeErr != nil {
					log.WithContext(ctx).Error("failed to send error response", "error", writeErr)
				}
				err = nil
			}()

			return next(c)
		}
	}
}
