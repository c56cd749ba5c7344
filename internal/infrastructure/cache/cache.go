// Package cache holds read-through copies of users' OPEN carts. Entries are
// opaque bytes; the cart service owns the encoding. Prices are never cached.
//
// Every user also has a generation counter. Invalidate drops the entry and
// bumps the generation, and Set only stores an entry while the generation
// it was loaded under is still current, so a load that raced a mutation
// cannot put the old cart back.
package cache

import (
	"context"
	"errors"
)

type CartCache interface {
	Get(ctx context.Context, userID int) ([]byte, error)
	// Generation is the user's current generation, 0 when none is recorded.
	Generation(ctx context.Context, userID int) (int64, error)
	// Set returns ErrStale and stores nothing when gen is no longer current.
	Set(ctx context.Context, userID int, gen int64, payload []byte) error
	Invalidate(ctx context.Context, userID int) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrStale     = errors.New("cache generation moved on")
)

// Noop never stores anything. Used when no redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, int) ([]byte, error)       { return nil, ErrCacheMiss }
func (Noop) Generation(context.Context, int) (int64, error) { return 0, nil }
func (Noop) Set(context.Context, int, int64, []byte) error  { return nil }
func (Noop) Invalidate(context.Context, int) error          { return nil }
