package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/neeprokriti/catalog-server/pkg/config"
	"github.com/neeprokriti/catalog-server/pkg/health"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/observability/metrics"
	"github.com/neeprokriti/catalog-server/pkg/observability/tracing"
	"github.com/neeprokriti/catalog-server/pkg/server/openapi"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	"github.com/neeprokriti/catalog-server/pkg/server/router/factory"
	"github.com/neeprokriti/catalog-server/pkg/version"
	"golang.org/x/sync/errgroup"
)

// LifecycleHook defines a named startup/shutdown action.
type LifecycleHook struct {
	Name string
	Fn   func(context.Context) error
}

// RunHTTPServersOptions defines inputs for building and running the HTTP servers.
type RunHTTPServersOptions struct {
	Config *config.Config

	// PublicRouter is optional. If nil, a router is created from Config.HTTP.Router.
	PublicRouter router.Router
	// ManagementRouter is optional. If nil and management is enabled, a router is created.
	ManagementRouter router.Router

	Logger logger.Logger

	HealthRegistry  *health.Registry
	MetricsRegistry *metrics.Registry

	// RegisterRoutes adds the application routes to the public router. The same
	// function feeds the OpenAPI document served by the management server.
	RegisterRoutes func(r router.Router)

	StartupHooks        []LifecycleHook
	ShutdownHooks       []LifecycleHook
	ShutdownHookTimeout time.Duration
}

// HTTPServers groups the runtime public/management servers.
type HTTPServers struct {
	Public     *PublicAPIServer
	Management *ManagementServer
}

// BuildHTTPServers constructs the HTTP servers from config and options, filling in
// defaults for every optional collaborator.
func BuildHTTPServers(opts *RunHTTPServersOptions) (*HTTPServers, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		httpLogger, err := logger.NewZapLogger(logger.DefaultConfig())
		if err != nil {
			return nil, err
		}
		opts.Logger = httpLogger
	}
	if opts.HealthRegistry == nil {
		opts.HealthRegistry = health.NewRegistry()
	}
	if opts.MetricsRegistry == nil {
		opts.MetricsRegistry = metrics.NewRegistry(opts.Config.Observability.MetricsNamespace)
	}

	if opts.PublicRouter == nil {
		r, err := factory.NewRouter(opts.Config.HTTP.Router)
		if err != nil {
			return nil, fmt.Errorf("create public router: %w", err)
		}
		opts.PublicRouter = r
	}

	publicServer := NewPublicAPIServer(opts.Config, opts.PublicRouter, opts.Logger, PublicOptions{
		Metrics: opts.MetricsRegistry.HTTP(),
	})
	if opts.RegisterRoutes != nil {
		opts.RegisterRoutes(publicServer.Router())
	}

	servers := &HTTPServers{Public: publicServer}
	if !opts.Config.Management.Enabled {
		return servers, nil
	}

	if opts.ManagementRouter == nil {
		r, err := factory.NewRouter(opts.Config.HTTP.Router)
		if err != nil {
			return nil, fmt.Errorf("create management router: %w", err)
		}
		opts.ManagementRouter = r
	}

	versionInfo := version.Current(orUnknown(opts.Config.Service.Name))
	var specHandler *openapi.Handler
	if opts.RegisterRoutes != nil {
		spec := openapi.BuildSpec(versionInfo.Service, versionInfo.APIVersion(), openapi.CollectRoutes(opts.RegisterRoutes))
		handler, err := openapi.NewHandler(spec)
		if err != nil {
			return nil, fmt.Errorf("create openapi handler: %w", err)
		}
		specHandler = handler
	}

	servers.Management = NewManagementServer(opts.Config.Management, opts.ManagementRouter, opts.Logger, ManagementOptions{
		Health:  opts.HealthRegistry,
		Metrics: opts.MetricsRegistry,
		Version: versionInfo,
		OpenAPI: specHandler,
	})
	return servers, nil
}

// RunHTTPServers starts the public server and, when configured, the management server.
// It returns when ctx is cancelled or either server fails; shutdown hooks run last.
func RunHTTPServers(ctx context.Context, servers *HTTPServers, opts *RunHTTPServersOptions) error {
	switch {
	case servers == nil || servers.Public == nil:
		return errors.New("servers and public server are required")
	case opts.Logger == nil:
		return errors.New("logger is required")
	case opts.Config == nil:
		return errors.New("config is required")
	}
	log := opts.Logger

	info := version.Current(orUnknown(opts.Config.Service.Name))
	log.Info("application version metadata",
		"service", info.Service,
		"version", info.Version,
		"commit", info.Commit,
		"build_time", info.BuildTime,
	)

	tc := opts.Config.Observability.Tracing
	provider, err := tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    info.Service,
		ServiceVersion: info.Version,
		Environment:    orUnknown(opts.Config.Service.Environment),
		Endpoint:       tc.Endpoint,
		SampleRate:     tc.SampleRate,
		Insecure:       tc.Insecure,
		Enabled:        tc.Enabled,
	})
	if err != nil {
		return fmt.Errorf("initialize tracing provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Error("failed to shutdown tracing provider", "error", err)
		}
	}()

	defer func() {
		if err := runShutdownHooks(opts); err != nil {
			log.Error("shutdown hooks completed with errors", "error", err)
		}
	}()
	for _, hook := range opts.StartupHooks {
		if err := runHook(ctx, log, "startup", hook); err != nil {
			return err
		}
	}

	// The first server to fail cancels the group context and stops the other one.
	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return servers.Public.Start(runCtx) })
	if servers.Management != nil {
		g.Go(func() error { return servers.Management.Start(runCtx) })
	}
	return g.Wait()
}

// RunHTTPServersWithSignals runs servers until SIGINT or SIGTERM (or the given signals).
func RunHTTPServersWithSignals(servers *HTTPServers, opts *RunHTTPServersOptions, signals ...os.Signal) error {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()
	return RunHTTPServers(ctx, servers, opts)
}

// runShutdownHooks runs every hook with its own timeout and joins their errors.
func runShutdownHooks(opts *RunHTTPServersOptions) error {
	timeout := opts.ShutdownHookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var errs []error
	for _, hook := range opts.ShutdownHooks {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		errs = append(errs, runHook(ctx, opts.Logger, "shutdown", hook))
		cancel()
	}
	return errors.Join(errs...)
}

func runHook(ctx context.Context, log logger.Logger, phase string, hook LifecycleHook) error {
	if hook.Fn == nil {
		return nil
	}
	name := strings.TrimSpace(hook.Name)
	if name == "" {
		name = "unnamed"
	}
	log.Info(phase+" hook start", "hook", name)
	if err := hook.Fn(ctx); err != nil {
		log.Error(phase+" hook failed", "hook", name, "error", err)
		return fmt.Errorf("%s hook %q failed: %w", phase, name, err)
	}
	log.Info(phase+" hook complete", "hook", name)
	return nil
}

func orUnknown(value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return version.Unknown
}
