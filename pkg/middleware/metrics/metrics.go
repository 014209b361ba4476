// Package metrics records Prometheus request metrics.
package metrics

import (
	"net/http"
	"time"

	obsmetrics "github.com/neeprokriti/catalog-server/pkg/observability/metrics"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// UnmatchedPath labels requests that hit no route, keeping label cardinality bounded.
const UnmatchedPath = "unmatched"

// Metrics creates middleware that records request duration, totals by method, path
// and status, and the in-flight gauge on m.
func Metrics(m *obsmetrics.HTTPMetrics) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			m.IncInFlight()
			defer m.DecInFlight()

			start := time.Now()
			err := next(c)

			status := c.Response().Status()
			if err != nil && !c.Response().Written() {
				status = http.StatusInternalServerError
			}
			path := c.Request().URL.Path
			if status == http.StatusNotFound {
				path = UnmatchedPath
			}
			m.Record(c.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}
