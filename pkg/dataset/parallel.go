package dataset

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Parallel is an in-memory Collection whose Map fans element application
// out over a bounded worker pool. Output order matches input order
// regardless of worker scheduling, so results are indistinguishable from
// a sequential [Slice] map.
type Parallel struct {
	items   []any
	workers int
}

// NewParallel creates a parallel collection with the given worker count.
// If workers <= 0, runtime.NumCPU() is used.
func NewParallel(items []any, workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	copied := make([]any, len(items))
	copy(copied, items)
	return &Parallel{items: copied, workers: workers}
}

// Map applies fn to every element using up to p.workers goroutines.
// Each result is written to its input's index, preserving order. The
// first error cancels the remaining work.
func (p *Parallel) Map(ctx context.Context, fn MapFunc) (Collection, error) {
	out := make([]any, len(p.items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, x := range p.items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			y, err := fn(x)
			if err != nil {
				return err
			}
			out[i] = y
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Parallel{items: out, workers: p.workers}, nil
}

// Collect returns a copy of all elements in order.
func (p *Parallel) Collect(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]any, len(p.items))
	copy(out, p.items)
	return out, nil
}

// Ensure Parallel implements Collection.
var _ Collection = (*Parallel)(nil)
