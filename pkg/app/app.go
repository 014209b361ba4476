// Package app wires the catalog service: MongoDB store, repository, HTTP handlers and servers.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neeprokriti/catalog-server/pkg/catalog"
	"github.com/neeprokriti/catalog-server/pkg/catalog/httpapi"
	"github.com/neeprokriti/catalog-server/pkg/config"
	"github.com/neeprokriti/catalog-server/pkg/health"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/observability/metrics"
	"github.com/neeprokriti/catalog-server/pkg/repository/document"
	"github.com/neeprokriti/catalog-server/pkg/server"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	"github.com/neeprokriti/catalog-server/pkg/store"
	mongostore "github.com/neeprokriti/catalog-server/pkg/store/mongodb"
)

// DatabaseCheckName is the readiness check name of the MongoDB connection.
const DatabaseCheckName = "mongodb"

// App is a fully wired catalog service ready to run.
type App struct {
	Servers *server.HTTPServers
	Options *server.RunHTTPServersOptions
	store   store.Adapter
}

// New connects to MongoDB and builds the HTTP servers around it.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	adapter, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}

	a, err := Assemble(cfg, log, adapter, adapter)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}
	return a, nil
}

// Assemble builds the servers over an already opened store. reader serves catalog queries and
// st receives readiness checks and is closed on shutdown.
func Assemble(cfg *config.Config, log logger.Logger, reader document.MongoStore, st store.Adapter) (*App, error) {
	registry := metrics.NewRegistry(cfg.Observability.MetricsNamespace)

	exec, err := document.NewMongoDBExecutor(reader,
		document.WithMetrics(registry.Store()),
		document.WithDatabaseName(cfg.Database.DatabaseName),
	)
	if err != nil {
		return nil, fmt.Errorf("create document executor: %w", err)
	}

	handler, err := NewCatalogHandler(exec, cfg, log)
	if err != nil {
		return nil, err
	}

	healthRegistry := health.NewRegistry()
	healthRegistry.Register(health.NewAdapterChecker(DatabaseCheckName, st, cfg.Database.QueryTimeout,
		health.WithSlowThreshold(cfg.Database.SlowPingThreshold),
	))

	opts := &server.RunHTTPServersOptions{
		Config:          cfg,
		Logger:          log,
		HealthRegistry:  healthRegistry,
		MetricsRegistry: registry,
		RegisterRoutes:  handler.Register,
		ShutdownHooks: []server.LifecycleHook{
			{Name: "close-mongodb", Fn: closeHook(st, log)},
		},
	}
	servers, err := server.BuildHTTPServers(opts)
	if err != nil {
		return nil, fmt.Errorf("build http servers: %w", err)
	}
	return &App{Servers: servers, Options: opts, store: st}, nil
}

// Run serves until ctx is cancelled or a server fails. The store is closed on return.
func (a *App) Run(ctx context.Context) error {
	return server.RunHTTPServers(ctx, a.Servers, a.Options)
}

// Run connects, serves and shuts down on SIGINT or SIGTERM.
func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	a, err := New(cfg, log)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}

// CheckDependencies verifies that MongoDB is reachable with the configured credentials.
func CheckDependencies(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	adapter, err := OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer adapter.Close()

	checkCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	if err := adapter.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("mongodb health check: %w", err)
	}
	return nil
}

// OpenStore connects to the configured MongoDB deployment.
func OpenStore(cfg *config.Config, log logger.Logger) (*mongostore.Adapter, error) {
	db := cfg.Database
	adapter, err := mongostore.NewAdapter(mongostore.Config{
		URL:              db.ConnectionURL(),
		Database:         db.DatabaseName,
		AppName:          db.AppName,
		ConnectTimeout:   db.ConnectTimeout,
		OperationTimeout: db.QueryTimeout,
		MaxPoolSize:      db.MaxPoolSize,
		StrictAPI:        db.StrictAPI,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb %s: %w", config.RedactURL(db.ConnectionURL()), err)
	}
	return adapter, nil
}

// NewCatalogHandler wires repository, service and HTTP handler over reader.
func NewCatalogHandler(reader document.Reader, cfg *config.Config, log logger.Logger) (*httpapi.Handler, error) {
	repo, err := catalog.NewMongoRepository(reader, cfg.Database.Collection)
	if err != nil {
		return nil, fmt.Errorf("create catalog repository: %w", err)
	}
	svc, err := catalog.NewService(repo, catalog.Translator{PatternSearch: cfg.Catalog.Search.PatternMode}, log)
	if err != nil {
		return nil, fmt.Errorf("create catalog service: %w", err)
	}
	limits := catalog.Limits{
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
	}
	return httpapi.NewHandler(svc, limits, log)
}

// RegisterRoutes mounts the catalog routes without a database connection. Requests fail
// with 503; it exists for OpenAPI generation.
func RegisterRoutes(r router.Router, cfg *config.Config) {
	handler, err := NewCatalogHandler(disconnected{}, cfg, logger.Nop())
	if err != nil {
		return
	}
	handler.Register(r)
}

func closeHook(st store.Adapter, log logger.Logger) func(context.Context) error {
	return func(context.Context) error {
		if err := st.Close(); err != nil {
			return fmt.Errorf("close mongodb: %w", err)
		}
		log.Info("mongodb connection closed")
		return nil
	}
}

type disconnected struct{}

func (disconnected) Find(context.Context, string, document.Filter, document.FindOptions, interface{}) error {
	return mongostore.ErrClosed
}

func (disconnected) Count(context.Context, string, document.Filter) (int64, error) {
	return 0, mongostore.ErrClosed
}

func (disconnected) Aggregate(context.Context, string, interface{}, interface{}) error {
	return mongostore.ErrClosed
}
