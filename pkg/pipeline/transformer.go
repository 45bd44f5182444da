package pipeline

import (
	"context"

	"github.com/gantryml/gantry/pkg/dataset"
)

// Transformer is the basic operator contract: a deterministic transform
// of one item, plus its bulk form over a collection.
//
// The two paths must agree: for any collection, ApplyBulk must produce
// exactly the per-element results of Apply, in order. Implementations
// are free to realize the bulk path differently (batched I/O, vectorized
// math) as long as that equivalence holds.
//
// Transformers must be safe for concurrent use; the executor may invoke
// one instance from many goroutines.
type Transformer interface {
	// Apply transforms a single item.
	Apply(x any) (any, error)

	// ApplyBulk transforms every element of data, preserving order and
	// count.
	ApplyBulk(ctx context.Context, data dataset.Collection) (dataset.Collection, error)
}

// HintedTransformer is an optional capability: a transformer whose bulk
// path can exploit an optimizer hint. Nested pipelines implement it so
// an outer execution's rewrite pass reaches inner graphs too.
type HintedTransformer interface {
	Transformer
	ApplyBulkHinted(ctx context.Context, data dataset.Collection, hint Optimizer) (dataset.Collection, error)
}

// VariadicTransformer is an optional capability for operators consuming
// more than one input. The executor hands such a node the outputs of all
// its data dependencies, in declaration order; plain transformers only
// ever see the first.
type VariadicTransformer interface {
	Transformer
	ApplyAll(ins []any) (any, error)
	ApplyBulkAll(ctx context.Context, ins []dataset.Collection) (dataset.Collection, error)
}

// Estimator produces a fitted transformer from training data. Fit does
// not transform anything itself; the returned transformer carries
// whatever state was estimated.
type Estimator interface {
	Fit(ctx context.Context, data dataset.Collection) (Transformer, error)
}

// LabelEstimator is an estimator that additionally consumes a labels
// collection aligned element-for-element with the training data.
type LabelEstimator interface {
	FitLabeled(ctx context.Context, data, labels dataset.Collection) (Transformer, error)
}

// Func adapts a pure element function to the [Transformer] contract.
// The bulk path is a single Map over the collection, so the two paths
// agree by construction. Func values are also what the map-fusion
// rewrite pass recognizes as fusable.
type Func func(x any) (any, error)

// Apply calls the function.
func (f Func) Apply(x any) (any, error) { return f(x) }

// ApplyBulk maps the function over the collection.
func (f Func) ApplyBulk(ctx context.Context, data dataset.Collection) (dataset.Collection, error) {
	return data.Map(ctx, dataset.MapFunc(f))
}

// Compose returns the function x -> b(a(x)).
func Compose(a, b Func) Func {
	return func(x any) (any, error) {
		y, err := a(x)
		if err != nil {
			return nil, err
		}
		return b(y)
	}
}

// Ensure Func satisfies the operator contract.
var _ Transformer = (Func)(nil)
