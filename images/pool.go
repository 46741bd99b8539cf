package images

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds number of concurrent downloads. It is created by the program and
// shared by all collectors, so the limit holds across cells converted in
// parallel.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates pool running at most size tasks at once.
func NewPool(size int) *Pool {
	size = max(size, 1)
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn when pool has capacity. It returns context error if context is
// done before fn could start.
func (p *Pool) Do(ctx context.Context, fn func(context.Context)) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	fn(ctx)
	return nil
}
