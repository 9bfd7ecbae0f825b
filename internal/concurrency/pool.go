package concurrency

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool runs bounded-concurrency batches of work, grounded on the batch
// embedder's use of an ants.Pool: submit every item, wait for all of them,
// and surface the first error encountered.
type Pool struct {
	inner *ants.Pool
}

// NewPool builds a Pool with at most size concurrent goroutines in flight.
func NewPool(size int) (*Pool, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{inner: p}, nil
}

// Release frees the pool's goroutines. Safe to call once, after the last
// Run call has returned.
func (p *Pool) Release() {
	p.inner.Release()
}

// Run submits one task per item, each wrapped with fn, and blocks until all
// have completed or the context is cancelled. It returns the first error
// encountered across all items; once one item fails, later-submitted items
// still run but their errors are discarded in favour of the first.
func Run[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) error) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, item := range items {
		item := item
		wg.Add(1)
		task := func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				mu.Lock()
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				mu.Unlock()
				return
			default:
			}
			if err := fn(ctx, item); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}
		if err := p.inner.Submit(task); err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	return firstErr
}

// RunBatched chunks items into groups of batchSize and runs fn once per
// batch with bounded concurrency p, grounded on batchEmbedder.BatchEmbedWithPool.
func RunBatched[T any](ctx context.Context, p *Pool, items []T, batchSize int, fn func(context.Context, []T) error) error {
	batches := ChunkSlice(items, batchSize)
	return Run(ctx, p, batches, fn)
}
