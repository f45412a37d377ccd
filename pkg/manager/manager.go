package manager

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/etesdev/etes/pkg/api"
	"github.com/etesdev/etes/pkg/auth"
	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/github"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/monitor"
	"github.com/etesdev/etes/pkg/proxy"
	"github.com/etesdev/etes/pkg/registry"
	"github.com/etesdev/etes/pkg/supervisor"
)

// App owns every long-lived component of etes, wired around one shared
// event broker.
type App struct {
	cfg        *config.Config
	broker     *events.Broker
	registry   *registry.Registry
	supervisor *supervisor.Supervisor
	github     *github.Manager
	monitor    *monitor.Monitor
	api        *api.Server
	proxy      *proxy.Proxy
	logger     zerolog.Logger
}

// New constructs the application from its configuration. Nothing is
// started and no I/O happens until Run.
func New(cfg *config.Config) *App {
	broker := events.NewBroker()
	reg := registry.New(cfg.BinDir)
	sup := supervisor.New(cfg, reg, broker)
	gh := github.New(cfg)
	mon := monitor.New()
	authSvc := auth.New(cfg)

	return &App{
		cfg:        cfg,
		broker:     broker,
		registry:   reg,
		supervisor: sup,
		github:     gh,
		monitor:    mon,
		api:        api.New(cfg, broker, reg, sup, gh, mon, authSvc),
		proxy:      proxy.New(cfg, sup, broker, authSvc),
		logger:     log.WithComponent("manager"),
	}
}

// Run performs the startup chores and serves until ctx is cancelled.
// The memory monitor, the GitHub refresh worker, the supervisor command
// loop, the management server, and the proxy run under one group; the
// first hard failure tears the rest down.
func (a *App) Run(ctx context.Context) error {
	a.init(ctx)

	a.broker.Start()
	defer a.broker.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.monitor.Run(ctx, a.broker) })
	g.Go(func() error { return a.github.Run(ctx, a.broker) })
	g.Go(func() error { return a.supervisor.Run(ctx) })
	g.Go(func() error { return a.api.Run(ctx) })
	g.Go(func() error { return a.proxy.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info().Msg("Shutdown complete")
	return nil
}

// init fetches the initial GitHub snapshot, sweeps artifacts that no
// release or green pull references anymore, and loads the executable
// catalog. All of it is best-effort: a cold metadata cache or a failed
// sweep is worth a log line, not a refused start.
func (a *App) init(ctx context.Context) {
	if err := a.github.Update(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to fetch GitHub data")
	}

	kept, removed, err := a.registry.Sweep(a.github.ValidCommits())
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to remove unused executables")
		a.registry.Refresh()
		return
	}

	a.logger.Info().Int("kept", kept).Int("removed", removed).Msg("Swept executables")
}
