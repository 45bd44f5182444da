package pipeline

import "fmt"

// Optimizer is an optional rewrite pass over a compiled graph, consulted
// only on the bulk apply path. Implementations must be stateless and
// referentially transparent, and must preserve observable outputs: for
// every valid input, executing the rewritten graph yields exactly what
// the original graph yields. Structural equivalence is not required.
//
// Optimization is a performance concern, not a correctness requirement.
// The executor treats any optimizer failure - an error return, a panic,
// or a structurally invalid result - by falling back to the unoptimized
// graph. Failures are never surfaced to the caller.
type Optimizer interface {
	Optimize(g Graph) (Graph, error)
}

// runOptimizer invokes opt on a private clone of g, converting panics
// into errors and revalidating the result so a buggy pass cannot hand
// the executor a malformed graph.
func runOptimizer(opt Optimizer, g Graph) (out Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("optimizer panic: %v", r)
		}
	}()
	out, err = opt.Optimize(g.Clone())
	if err != nil {
		return Graph{}, err
	}
	if verr := out.validate(); verr != nil {
		return Graph{}, fmt.Errorf("optimizer produced invalid graph: %w", verr)
	}
	return out, nil
}
