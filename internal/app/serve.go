package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/tradeassist/internal/digest"
	"github.com/alanyoungcy/tradeassist/internal/server"
	"github.com/alanyoungcy/tradeassist/internal/server/handler"
)

const shutdownTimeout = 5 * time.Second

// newServer builds the API server over deps.
func (a *App) newServer(deps *Dependencies) *server.Server {
	budget := digest.Budget{
		Limit:         a.cfg.Analysis.TokenLimit,
		CharsPerToken: a.cfg.Analysis.CharsPerToken,
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger, healthChecks(deps)...),
		Positions: handler.NewPositionHandler(deps.Trading, deps.Target, a.logger),
		Trades:    handler.NewTradeHandler(deps.Trading, deps.Target, a.logger),
		Query:     handler.NewQueryHandler(deps.Trading, deps.Target, budget, a.logger),
		Prices:    handler.NewPriceHandler(deps.Prices, deps.Market, a.logger),
	}

	return server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, deps.RateLimiter, a.logger)
}

// healthChecks probes the default database and, when configured, Redis.
func healthChecks(deps *Dependencies) []handler.HealthCheck {
	checks := []handler.HealthCheck{{
		Name: "database",
		Check: func(ctx context.Context) error {
			pool, err := deps.Pools.Pool(ctx, deps.Target)
			if err != nil {
				return err
			}
			return pool.Ping(ctx)
		},
	}}
	if deps.Redis != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: deps.Redis.Ping})
	}
	return checks
}

// serve runs the API on the configured port until ctx is cancelled.
func (a *App) serve(ctx context.Context, deps *Dependencies) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.serveListener(ctx, deps, l)
}

// serveListener serves on l and shuts the server down gracefully once ctx
// is done.
func (a *App) serveListener(ctx context.Context, deps *Dependencies, l net.Listener) error {
	srv := a.newServer(deps)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.String("addr", l.Addr().String()),
		)
		return srv.Serve(l)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}
