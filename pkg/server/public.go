package server

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/neeprokriti/catalog-server/pkg/config"
	"github.com/neeprokriti/catalog-server/pkg/controller"
	"github.com/neeprokriti/catalog-server/pkg/middleware/compression"
	"github.com/neeprokriti/catalog-server/pkg/middleware/cors"
	"github.com/neeprokriti/catalog-server/pkg/middleware/logging"
	"github.com/neeprokriti/catalog-server/pkg/middleware/metrics"
	"github.com/neeprokriti/catalog-server/pkg/middleware/recovery"
	"github.com/neeprokriti/catalog-server/pkg/middleware/requestid"
	timeoutmiddleware "github.com/neeprokriti/catalog-server/pkg/middleware/timeout"
	"github.com/neeprokriti/catalog-server/pkg/middleware/tracing"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	obsmetrics "github.com/neeprokriti/catalog-server/pkg/observability/metrics"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// PublicOptions carries the collaborators of the public middleware stack.
type PublicOptions struct {
	Metrics        *obsmetrics.HTTPMetrics
	TracerProvider trace.TracerProvider
}

// PublicAPIServer wraps Server for catalog traffic.
type PublicAPIServer struct {
	*Server
	router router.Router
}

// NewPublicAPIServer creates the public server and applies its middleware stack, outermost
// first: request ID, compression, recovery, logging, CORS, metrics, tracing and timeout.
// Unknown routes answer with a JSON 404.
func NewPublicAPIServer(cfg *config.Config, r router.Router, log logger.Logger, opts PublicOptions) *PublicAPIServer {
	if log == nil {
		log = logger.Nop()
	}

	compressionCfg := cfg.HTTP.Compression
	r.Use(
		requestid.RequestID(),
		compression.Middleware(compression.Config{
			Enabled:      compressionCfg.Enabled,
			EnableGzip:   compressionCfg.Gzip,
			EnableBrotli: compressionCfg.Brotli,
			GzipLevel:    compressionCfg.GzipLevel,
			BrotliLevel:  compressionCfg.BrotliLevel,
			MinSize:      compressionCfg.MinSize,
		}),
		recovery.Recovery(log),
		logging.WithConfig(log, logging.Config{
			Enabled:              cfg.Observability.RequestLogging.Enabled,
			LogStart:             cfg.Observability.RequestLogging.LogStart,
			ExcludedPathPrefixes: cfg.Observability.RequestLogging.ExcludedPathPrefixes,
		}),
		cors.Middleware(cors.Config{
			Enabled:          cfg.CORS.Enabled,
			AllowOrigins:     cfg.CORS.AllowOrigins,
			AllowMethods:     cfg.CORS.AllowMethods,
			AllowHeaders:     cfg.CORS.AllowHeaders,
			ExposeHeaders:    cfg.CORS.ExposeHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}),
		metrics.Metrics(opts.Metrics),
		tracing.Tracing(tracing.Config{
			TracerName:     "catalog-http",
			TracerProvider: opts.TracerProvider,
		}),
		timeoutmiddleware.Middleware(timeoutmiddleware.Config{
			Enabled: cfg.HTTP.RequestTimeout > 0,
			Default: cfg.HTTP.RequestTimeout,
		}),
	)
	r.NotFound(func(c router.Context) error {
		return controller.Error(c, controller.NewNotFoundError("route not found"))
	})

	return &PublicAPIServer{
		Server: NewServer(Config{
			Name:            "public",
			Port:            cfg.HTTP.Port,
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			IdleTimeout:     cfg.HTTP.IdleTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		}, r, log),
		router: r,
	}
}

// Router returns the router for registering application routes.
func (s *PublicAPIServer) Router() router.Router {
	return s.router
}

// Start starts the public server.
func (s *PublicAPIServer) Start(ctx context.Context) error {
	return s.Server.Start(ctx)
}
