// Package server exposes the trading-data layer over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alanyoungcy/tradeassist/internal/domain"
	"github.com/alanyoungcy/tradeassist/internal/server/handler"
	"github.com/alanyoungcy/tradeassist/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Positions *handler.PositionHandler
	Trades    *handler.TradeHandler
	Query     *handler.QueryHandler
	Prices    *handler.PriceHandler
}

// Server is the HTTP API server for the trading-data layer.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// limiter may be nil, which disables rate limiting.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewHandler(cfg, handlers, limiter, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed handler with its middleware chain.
func NewHandler(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/positions", handlers.Positions.ListPositions)
	api.HandleFunc("GET /api/positions/profitable", handlers.Positions.ListProfitable)
	api.HandleFunc("GET /api/trades", handlers.Trades.ListTrades)
	api.HandleFunc("POST /api/query", handlers.Query.RunQuery)
	api.HandleFunc("GET /api/price/{symbol}", handlers.Prices.GetPrice)
	api.HandleFunc("GET /api/market/{symbol}", handlers.Prices.GetSnapshot)

	var protected http.Handler = api
	protected = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(protected)
	protected = middleware.Auth(cfg.APIKey, logger)(protected)

	// Health check (no auth required).
	root := http.NewServeMux()
	root.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	root.Handle("/", protected)

	var h http.Handler = root
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

// Serve accepts connections on l until shut down.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("server: starting",
		slog.String("addr", l.Addr().String()),
	)
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
