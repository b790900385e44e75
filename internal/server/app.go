// Package server wires configuration, storage, services and the HTTP API
// into a runnable application with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// openRepositories is a seam for tests.
var openRepositories = func(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	return repomanager.Open(ctx, repomanager.Options{DSN: cfg.DatabaseDSN, Database: cfg.DatabaseName})
}

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := services.New(repos, c, logger)
	api, err := httpapi.New(svc, repos.Store(), c, logger, reg)
	if err != nil {
		_ = repos.Close(ctx)
		return nil, err
	}

	return &App{
		config: c,
		logger: logger,
		repos:  repos,
		server: httpapi.NewHTTPServer(c.HTTPAddr, api.Handler(), logger, c.ShutdownTimeout),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
	}

	cctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if cerr := app.repos.Close(cctx); cerr != nil {
		app.logger.Error(ctx, "closing store", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
