package pipeline

import (
	"errors"
	"fmt"
)

// ErrMalformedGraph is the root of all graph construction errors. Every
// structural defect reported by [New] wraps it, so callers can match the
// whole family with one errors.Is check or a specific defect with its
// own sentinel.
var ErrMalformedGraph = errors.New("pipeline: malformed graph")

var (
	// ErrDepsMismatch reports dependency lists whose lengths disagree
	// with the node arena.
	ErrDepsMismatch = fmt.Errorf("%w: dependency lists do not match node count", ErrMalformedGraph)

	// ErrIndexOutOfRange reports a dependency index outside the arena.
	ErrIndexOutOfRange = fmt.Errorf("%w: dependency index out of range", ErrMalformedGraph)

	// ErrSinkOutOfRange reports a sink index outside the arena.
	ErrSinkOutOfRange = fmt.Errorf("%w: sink index out of range", ErrMalformedGraph)

	// ErrBadFitTarget reports a fit dependency that does not point at an
	// estimator node.
	ErrBadFitTarget = fmt.Errorf("%w: fit dependency target is not an estimator", ErrMalformedGraph)

	// ErrBadNode reports a node whose payload disagrees with its kind.
	ErrBadNode = fmt.Errorf("%w: node payload inconsistent with kind", ErrMalformedGraph)

	// ErrGraphCycle reports a dependency cycle.
	ErrGraphCycle = fmt.Errorf("%w: dependency cycle", ErrMalformedGraph)
)

// ErrFit is the root of all fitting errors. Estimator failures wrap it
// together with the failing node's index and label.
var ErrFit = errors.New("pipeline: fit failed")

// ErrLabelsRequired is returned by [Pipeline.Fit] when the graph
// contains a label estimator, which can only be fit through
// [Pipeline.FitLabeled].
var ErrLabelsRequired = fmt.Errorf("%w: pipeline contains label estimators, use FitLabeled", ErrFit)

// ErrNotFitted is returned by the apply paths when the pipeline still
// contains unresolved estimator stages.
var ErrNotFitted = errors.New("pipeline: not fitted")
