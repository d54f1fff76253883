package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadPayload   = errors.New("unexpected payload")
	ErrUnresolved   = errors.New("price unresolved")
	ErrEmptySymbol  = errors.New("empty symbol")
)
