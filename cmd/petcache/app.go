package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/vyrodovalexey/petcache/internal/admin"
	"github.com/vyrodovalexey/petcache/internal/cache"
	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/health"
	"github.com/vyrodovalexey/petcache/internal/monitoring"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

const redisCheckName = "redis"

// application holds all application components.
type application struct {
	config   *config.Config
	logger   observability.Logger
	tracer   *observability.Tracer
	local    *cache.LocalManager
	remote   *cache.RemoteManager
	manager  cache.Manager
	service  *monitoring.Service
	reporter *monitoring.Reporter
	checker  *health.Checker
	admin    *admin.Server

	// flags are re-applied to every reloaded configuration.
	flags    cliFlags
	reloadMu sync.Mutex
}

// newApplication builds the cache managers and everything served on top
// of them. In hybrid mode Redis must answer PING.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		tracer:  tracer,
		local:   cache.NewLocalManager(cfg.Cache.Local, cfg.Cache.Regions, logger),
		checker: health.NewChecker(version, logger),
	}
	app.manager = app.local

	if cfg.Cache.Hybrid.Enabled {
		if err := app.enableHybrid(); err != nil {
			app.close(context.Background())
			return nil, err
		}
	}

	cache.GetMetrics().Init(cfg.Cache.Regions)
	if app.remote != nil {
		health.GetHealthMetrics().Init(redisCheckName)
	} else {
		health.GetHealthMetrics().Init()
	}

	app.service = monitoring.NewService(app.manager, cfg.Cache.Regions, logger)

	if cfg.StatsReport.Enabled {
		reporter, err := monitoring.NewReporter(app.service, cfg.StatsReport.Schedule, logger)
		if err != nil {
			app.close(context.Background())
			return nil, err
		}
		app.reporter = reporter
	}

	app.admin = admin.NewServer(cfg, app.service, app.checker, logger)

	logger.Info("cache manager initialized",
		observability.String("mode", app.mode()),
		observability.Strings("regions", cfg.Cache.Regions),
	)

	return app, nil
}

func (a *application) enableHybrid() error {
	remote, err := cache.NewRemoteManager(&a.config.Cache.Remote, a.config.Cache.Regions, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize remote cache: %w", err)
	}

	var opts []cache.HybridOption
	if a.config.Cache.Hybrid.CoalesceLoads {
		opts = append(opts, cache.WithLoadCoalescing())
	}

	a.remote = remote
	a.manager = cache.NewHybridManager(a.local, remote, a.logger, opts...)
	a.checker.RegisterCheck(redisCheckName, remote.Ping)
	return nil
}

func (a *application) mode() string {
	if a.remote != nil {
		return "hybrid"
	}
	return "local"
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config) (*observability.Tracer, error) {
	serviceName := cfg.Tracing.ServiceName
	if serviceName == "" {
		serviceName = "petcache"
	}

	return observability.NewTracer(observability.TracerConfig{
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
}

// run serves the admin API until ctx is done or the server fails, then
// shuts everything down.
func (a *application) run(ctx context.Context) error {
	if a.reporter != nil {
		a.reporter.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.admin.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case runErr = <-errCh:
	}

	a.shutdown()
	return runErr
}
