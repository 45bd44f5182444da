// Package dataset provides the bulk collection abstraction that gantry
// pipelines execute against, with implementations for different backends:
//   - Slice: in-memory, sequential, for tests and small jobs
//   - Parallel: in-memory with a bounded worker pool
//   - RedisList: elements stored as JSON in a Redis list
//   - MongoSource: read-only view over a MongoDB collection
//
// # Contract
//
// A Collection only needs two primitives: an element-wise Map that applies
// a pure function to every element while preserving order and count, and a
// Collect that materializes all elements. Any backend offering these two
// operations (in-memory list, partitioned store, streaming batch) can host
// a pipeline's bulk execution.
//
// Map must be 1:1 - it never drops, reorders, or duplicates elements. The
// function passed to Map must be safe to call from multiple goroutines, as
// parallel backends may fan it out.
//
// # Usage
//
// Create a collection and map over it:
//
//	data := dataset.FromSlice([]any{1.0, 2.0, 3.0})
//	doubled, err := data.Map(ctx, func(x any) (any, error) {
//	    return x.(float64) * 2, nil
//	})
//	items, err := doubled.Collect(ctx)
package dataset

import "context"

// MapFunc is the element transform applied by [Collection.Map].
// It must be pure with respect to collection state and safe for
// concurrent invocation.
type MapFunc func(x any) (any, error)

// Collection is an ordered bulk collection of items.
//
// Implementations may hold data in memory or in an external store. All
// operations take a context because backends can block on I/O; in-memory
// backends ignore it except for cancellation checks.
type Collection interface {
	// Map applies fn to every element, preserving order and count, and
	// returns the resulting collection. The receiver is not modified.
	Map(ctx context.Context, fn MapFunc) (Collection, error)

	// Collect materializes all elements in order.
	// The returned slice is owned by the caller.
	Collect(ctx context.Context) ([]any, error)
}

// Floats converts a float64 slice into the []any element form used by
// collections. It is a convenience for numeric pipelines.
func Floats(xs []float64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
