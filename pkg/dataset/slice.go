package dataset

import "context"

// Slice is an in-memory, sequential Collection.
// It is the reference implementation: every other backend must produce
// the same observable results as a Slice holding the same elements.
type Slice struct {
	items []any
}

// FromSlice creates an in-memory collection from items.
// The input slice is copied, so later mutation of items does not affect
// the collection.
func FromSlice(items []any) *Slice {
	copied := make([]any, len(items))
	copy(copied, items)
	return &Slice{items: copied}
}

// Map applies fn to every element in order.
// It stops at the first error or context cancellation.
func (s *Slice) Map(ctx context.Context, fn MapFunc) (Collection, error) {
	out := make([]any, len(s.items))
	for i, x := range s.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y, err := fn(x)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return &Slice{items: out}, nil
}

// Collect returns a copy of all elements in order.
func (s *Slice) Collect(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Len returns the number of elements.
func (s *Slice) Len() int { return len(s.items) }

// Ensure Slice implements Collection.
var _ Collection = (*Slice)(nil)
