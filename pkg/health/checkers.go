package health

import (
	"context"
	"fmt"
	"time"
)

// DefaultCheckTimeout bounds a single store check when none is configured.
const DefaultCheckTimeout = 5 * time.Second

// Checkable is implemented by components that can report their own health, such as
// the MongoDB adapter.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// AdapterChecker checks a Checkable within a timeout. A check that succeeds slower than
// the degraded threshold reports StatusDegraded.
type AdapterChecker struct {
	name          string
	adapter       Checkable
	timeout       time.Duration
	slowThreshold time.Duration
}

// CheckerOption customizes an AdapterChecker.
type CheckerOption func(*AdapterChecker)

// WithSlowThreshold marks successful checks slower than d as degraded. Zero disables it.
func WithSlowThreshold(d time.Duration) CheckerOption {
	return func(c *AdapterChecker) { c.slowThreshold = d }
}

// NewAdapterChecker creates a checker for adapter. A non-positive timeout uses
// DefaultCheckTimeout.
func NewAdapterChecker(name string, adapter Checkable, timeout time.Duration, opts ...CheckerOption) *AdapterChecker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	c := &AdapterChecker{
		name:    name,
		adapter: adapter,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AdapterChecker) Check(ctx context.Context) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.adapter.HealthCheck(checkCtx)
	elapsed := time.Since(start)

	result := CheckResult{
		Name:      c.name,
		Timestamp: time.Now(),
		Duration:  elapsed,
	}
	switch {
	case err != nil:
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	case c.slowThreshold > 0 && elapsed > c.slowThreshold:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("responded in %s, above %s", elapsed.Round(time.Millisecond), c.slowThreshold)
	default:
		result.Status = StatusHealthy
		result.Message = "reachable"
	}
	return result
}

func (c *AdapterChecker) Name() string {
	return c.name
}
