// Package pipeline provides gantry's core DAG composition and execution
// model: users assemble transformers and estimators into a directed
// acyclic graph, compile it by fitting, and apply the result uniformly
// to single items or to bulk collections.
//
// # Graph model
//
// A pipeline is a flat arena of [Node] values plus index-based
// dependency edges. Two parallel lists tie nodes together: data
// dependencies (whose outputs feed a node's input) and fit dependencies
// (which estimator must be fit before a node's transformer exists). The
// reserved index [Source] stands for the pipeline's external input, and
// a single sink index marks the output. Indices instead of pointers keep
// composition a pure renumbering operation and rule out cyclic ownership.
//
// All structural invariants - matching list lengths, index bounds, fit
// targets, acyclicity - are enforced in [New]. A malformed graph is
// rejected at construction time with an error wrapping
// [ErrMalformedGraph]; execution never starts on an invalid graph.
//
// # Fit, then transform
//
// Operators come in two flavors. A [Transformer] owns a fixed transform
// function and is immediately appliable. An [Estimator] must first be
// fit on training data, producing a concrete Transformer:
//
//	p := pipeline.FromTransformer("scale", ops.Scale(2)).
//		AndThenEstimator("center", ops.Center{})
//
//	fitted, err := p.Fit(ctx, train)
//	if err != nil {
//		return err
//	}
//	y, err := fitted.Apply(5.0)
//
// Fit returns a new immutable pipeline in which every estimator has been
// replaced by its product; the unfit original is untouched and estimator
// nodes never survive into the executable graph.
//
// # Execution
//
// [Pipeline.Apply] walks the graph for one item. [Pipeline.ApplyBulk]
// performs the same walk over a [dataset.Collection], delegating all
// parallelism to the collection backend. The walk itself is
// single-threaded and deterministic: Kahn's algorithm with a
// smallest-index tie-break fixes the evaluation order for a given graph.
//
// [Pipeline.ApplyBulkWith] additionally runs an [Optimizer] rewrite pass
// before the bulk walk. Optimizers are fail-open: any failure falls back
// to the literal per-node walk. The single-item path never pays for a
// rewrite pass.
//
// # Nesting
//
// Pipeline implements Transformer, so a pipeline can appear as a stage
// of a larger pipeline. [Pipeline.AndThen] inlines a sub-pipeline's
// nodes into the outer arena, which is what allows an outer Fit to
// resolve inner estimators.
package pipeline
