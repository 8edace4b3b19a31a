package puzzles

import (
	"context"
	"errors"
)

var (
	ErrFetch  = errors.New("puzzles: fetch failed")
	ErrDecode = errors.New("puzzles: malformed collection")
)

type Source interface {
	Load(ctx context.Context, opts LoadOptions) (Set, error)
	Location() string
}

type LoadOptions struct {
	// Refresh bypasses intermediate caches.
	Refresh bool
}
