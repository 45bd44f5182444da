// Package optimize provides rewrite passes over compiled pipeline
// graphs. Passes are pure functions from graph to graph bound by the
// [pipeline.Optimizer] contract: the rewritten graph must produce
// identical outputs to the original for every valid input.
//
// Passes compose with [Sequence]; [Standard] is the default pass order.
// Callers hand a pass to [pipeline.Pipeline.ApplyBulkWith], which applies
// it fail-open: a pass that errors on a node shape it cannot handle
// simply leaves execution on the unoptimized graph.
package optimize

import "github.com/gantryml/gantry/pkg/pipeline"

// Pass is a single rewrite step. It implements [pipeline.Optimizer], so
// a Pass can be used directly or composed with Sequence.
type Pass func(g pipeline.Graph) (pipeline.Graph, error)

// Optimize runs the pass.
func (p Pass) Optimize(g pipeline.Graph) (pipeline.Graph, error) { return p(g) }

// Sequence chains passes left to right, stopping at the first error.
func Sequence(passes ...Pass) Pass {
	return func(g pipeline.Graph) (pipeline.Graph, error) {
		var err error
		for _, pass := range passes {
			g, err = pass(g)
			if err != nil {
				return pipeline.Graph{}, err
			}
		}
		return g, nil
	}
}

// Standard is the default rewrite: fuse adjacent map stages, then drop
// whatever became unreachable.
func Standard() Pass {
	return Sequence(FuseMaps, Prune)
}

// Ensure Pass implements the optimizer contract.
var _ pipeline.Optimizer = (Pass)(nil)
