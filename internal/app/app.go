// Package app provides the top-level application lifecycle for tradeassist.
// It wires the database registry, price sources, caches and services, and
// runs the HTTP API until the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/tradeassist/internal/config"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()

	once    sync.Once
	deps    *Dependencies
	wireErr error
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Dependencies wires everything on first call and returns the same bundle on
// every later call.
func (a *App) Dependencies(ctx context.Context) (*Dependencies, error) {
	a.once.Do(func() {
		deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
		if err != nil {
			a.wireErr = fmt.Errorf("app: wire dependencies: %w", err)
			return
		}
		a.closers = append(a.closers, cleanup)
		a.deps = deps
	})
	return a.deps, a.wireErr
}

// Run wires dependencies and serves the HTTP API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("port", a.cfg.Server.Port),
	)

	a.logger.DebugContext(ctx, "effective configuration",
		slog.Any("config", config.RedactedConfig(a.cfg)),
	)

	deps, err := a.Dependencies(ctx)
	if err != nil {
		return err
	}
	return a.serve(ctx, deps)
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
