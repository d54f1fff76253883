package domain

import "context"

// PositionStore reads recorded positions from the database named by target,
// a connection string supplied per call.
type PositionStore interface {
	// ListOpen returns open rows ordered by entry timestamp, newest first.
	ListOpen(ctx context.Context, target string) ([]PositionRow, error)
	// ListClosed returns at most limit closed rows ordered by exit timestamp,
	// newest first.
	ListClosed(ctx context.Context, target string, limit int) ([]PositionRow, error)
	// Query runs a read-only query and returns its rows keyed by column name.
	Query(ctx context.Context, target, query string, args ...any) ([]map[string]any, error)
}
