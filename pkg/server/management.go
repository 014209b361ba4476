package server

import (
	"net/http"
	"time"

	"github.com/neeprokriti/catalog-server/pkg/config"
	"github.com/neeprokriti/catalog-server/pkg/controller"
	"github.com/neeprokriti/catalog-server/pkg/health"
	"github.com/neeprokriti/catalog-server/pkg/middleware/logging"
	"github.com/neeprokriti/catalog-server/pkg/middleware/recovery"
	"github.com/neeprokriti/catalog-server/pkg/middleware/requestid"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/observability/metrics"
	"github.com/neeprokriti/catalog-server/pkg/server/openapi"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	"github.com/neeprokriti/catalog-server/pkg/version"
)

const defaultManagementIdleTimeout = 60 * time.Second

// ManagementServer wraps Server for health, metrics and metadata endpoints on a port
// separate from the public API:
//   - /health: liveness, always 200
//   - /ready: readiness from the health registry, 503 when unhealthy
//   - /metrics: Prometheus exposition
//   - /version: build metadata
//   - /api/openapi/openapi.{yaml,json}: the public API document, when one is given
type ManagementServer struct {
	*Server
	healthRegistry  *health.Registry
	metricsRegistry *metrics.Registry
	versionInfo     version.Info
}

// ManagementOptions carries the collaborators of the management endpoints.
type ManagementOptions struct {
	Health  *health.Registry
	Metrics *metrics.Registry
	Version version.Info
	// OpenAPI is served when non-nil.
	OpenAPI *openapi.Handler
}

// NewManagementServer creates the management server with a lighter middleware stack than
// the public API: request ID, recovery and logging.
func NewManagementServer(cfg config.ManagementConfig, r router.Router, log logger.Logger, opts ManagementOptions) *ManagementServer {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Health == nil {
		opts.Health = health.NewRegistry()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry("")
	}

	r.Use(
		requestid.RequestID(),
		recovery.Recovery(log),
		logging.WithConfig(log, logging.Config{
			Enabled:              true,
			ExcludedPathPrefixes: []string{"/health", "/metrics"},
		}),
	)

	s := &ManagementServer{
		Server: NewServer(Config{
			Name:         "management",
			Port:         cfg.Port,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  defaultManagementIdleTimeout,
		}, r, log),
		healthRegistry:  opts.Health,
		metricsRegistry: opts.Metrics,
		versionInfo:     opts.Version,
	}

	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/version", s.handleVersion)
	if opts.OpenAPI != nil {
		opts.OpenAPI.RegisterRoutes(r)
	}
	r.NotFound(func(c router.Context) error {
		return controller.Error(c, controller.NewNotFoundError("route not found"))
	})

	return s
}

func (s *ManagementServer) handleHealth(c router.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": health.StatusHealthy,
	})
}

func (s *ManagementServer) handleReady(c router.Context) error {
	result := s.healthRegistry.Check(c.Request().Context())
	if !result.IsReady() {
		return c.JSON(http.StatusServiceUnavailable, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *ManagementServer) handleMetrics(c router.Context) error {
	s.metricsRegistry.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *ManagementServer) handleVersion(c router.Context) error {
	return c.JSON(http.StatusOK, s.versionInfo)
}
