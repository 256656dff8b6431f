package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool bounds how many row chunks are converted concurrently.
//
// A Pool is sized once. It has no resize operation: callers that want a
// different size must build a new Pool.
type Pool struct {
	size int
}

// NewPool creates a pool running at most size conversions at a time.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidPoolSize
	}
	return &Pool{size: size}, nil
}

// Size returns the maximum number of concurrent tasks.
func (p *Pool) Size() int {
	return p.size
}

// group returns an errgroup limited to the pool size. The returned context is
// cancelled when the first task fails.
func (p *Pool) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)
	return g, gctx
}
