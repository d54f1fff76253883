// Package postgres reads recorded positions from PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Registry.Pool after Close.
var ErrClosed = errors.New("postgres: registry closed")

// PoolOptions sizes every pool a Registry opens.
type PoolOptions struct {
	MaxConns int
	MinConns int
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres: empty connection string")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	if opts.MaxConns > 0 {
		poolCfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolCfg.MinConns = int32(opts.MinConns)
	}
	poolCfg.ConnConfig.DialFunc = dialPreferIPv4

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}

// dialPreferIPv4 tries the host's IPv4 addresses first and falls back to the
// system dialer for IPv6-only hosts.
func dialPreferIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("postgres: split host/port %q: %w", addr, err)
	}

	dialer := &net.Dialer{}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ip.String(), port))
		}
		return dialer.DialContext(ctx, "tcp6", net.JoinHostPort(ip.String(), port))
	}

	ipv4s, err4 := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	for _, ip := range ipv4s {
		conn, dialErr := dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ip.String(), port))
		if dialErr == nil {
			return conn, nil
		}
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err == nil {
		return conn, nil
	}
	if err4 != nil {
		return nil, fmt.Errorf("postgres: dial %q failed (ipv4 lookup=%v, fallback=%w)", addr, err4, err)
	}
	return nil, fmt.Errorf("postgres: dial %q failed: %w", addr, err)
}

// Registry owns one pool per connection string. A pool is opened on the
// first request for its DSN and reused until Close; concurrent first
// requests share a single dial. A failed dial is not cached.
type Registry struct {
	opts    PoolOptions
	connect func(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error)

	mu     sync.Mutex
	pools  map[string]*pgxpool.Pool
	closed bool
	group  singleflight.Group
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts PoolOptions) *Registry {
	return &Registry{
		opts:    opts,
		connect: Connect,
		pools:   make(map[string]*pgxpool.Pool),
	}
}

// Pool returns the pool for dsn, opening it if needed.
func (r *Registry) Pool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if pool, ok, err := r.lookup(dsn); err != nil || ok {
		return pool, err
	}

	v, err, _ := r.group.Do(dsn, func() (any, error) {
		if pool, ok, err := r.lookup(dsn); err != nil || ok {
			return pool, err
		}

		pool, err := r.connect(ctx, dsn, r.opts)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			pool.Close()
			return nil, ErrClosed
		}
		r.pools[dsn] = pool
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

func (r *Registry) lookup(dsn string) (*pgxpool.Pool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrClosed
	}
	pool, ok := r.pools[dsn]
	return pool, ok, nil
}

// Len returns the number of open pools.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools)
}

// Close shuts down every pool. Later calls to Pool return ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[string]*pgxpool.Pool)
	r.closed = true
	r.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}
