package pipeline

import "fmt"

// Pipeline is a compiled DAG of operators exposing the same apply
// contract as a plain [Transformer], so pipelines nest inside larger
// pipelines transparently.
//
// A pipeline is immutable after construction. Fitting does not mutate it
// in place; [Pipeline.Fit] returns a new instance. Concurrent reads of a
// pipeline therefore need no locking.
type Pipeline struct {
	g Graph
}

// New constructs a pipeline from a node arena, its dependency lists, and
// a sink index. Every structural invariant is checked here: list
// lengths, index bounds, node payloads, fit targets, and acyclicity.
// Violations return an error wrapping [ErrMalformedGraph]; no partially
// built pipeline is produced.
func New(nodes []Node, dataDeps [][]int, fitDeps []FitDep, sink int) (*Pipeline, error) {
	g := Graph{Nodes: nodes, DataDeps: dataDeps, FitDeps: fitDeps, Sink: sink}.Clone()
	if err := g.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{g: g}, nil
}

// FromGraph constructs a pipeline from a graph snapshot, revalidating it.
func FromGraph(g Graph) (*Pipeline, error) {
	return New(g.Nodes, g.DataDeps, g.FitDeps, g.Sink)
}

// FromTransformer wraps a single transformer as a one-node pipeline
// reading from the pipeline source.
func FromTransformer(label string, t Transformer) *Pipeline {
	return &Pipeline{g: Graph{
		Nodes:    []Node{OperatorNode(label, t)},
		DataDeps: [][]int{{Source}},
		FitDeps:  []FitDep{NoFit()},
		Sink:     0,
	}}
}

// FromEstimator starts a pipeline with an estimator stage. The graph
// holds the estimator node plus a delegating node that will receive the
// fit product; both read from the pipeline source.
func FromEstimator(label string, est Estimator) *Pipeline {
	return &Pipeline{g: Graph{
		Nodes:    []Node{EstimatorNode(label, est), DelegatingNode(label)},
		DataDeps: [][]int{{Source}, {Source}},
		FitDeps:  []FitDep{NoFit(), FitOn(0)},
		Sink:     1,
	}}
}

// FromLabelEstimator starts a pipeline with a label-estimator stage.
func FromLabelEstimator(label string, est LabelEstimator) *Pipeline {
	return &Pipeline{g: Graph{
		Nodes:    []Node{LabelEstimatorNode(label, est), DelegatingNode(label)},
		DataDeps: [][]int{{Source}, {Source}},
		FitDeps:  []FitDep{NoFit(), FitOn(0)},
		Sink:     1,
	}}
}

// AndThen appends next after the current sink and returns a new
// pipeline; the receiver is unchanged. If next is itself a *Pipeline its
// node arena is inlined: indices are offset by the receiver's node
// count, references to its own Source sentinel are redirected onto the
// receiver's sink, and the merged sink is its (offset) sink. Inlining is
// what lets an outer Fit see and resolve the inner pipeline's
// estimators. Any other Transformer is appended as a single operator
// node.
func (p *Pipeline) AndThen(next Transformer) *Pipeline {
	if np, ok := next.(*Pipeline); ok {
		return p.concat(np.g)
	}
	return p.concat(FromTransformer(fmt.Sprintf("%T", next), next).g)
}

// AndThenNamed is AndThen with an explicit label for the appended stage.
func (p *Pipeline) AndThenNamed(label string, next Transformer) *Pipeline {
	if np, ok := next.(*Pipeline); ok {
		return p.concat(np.g)
	}
	return p.concat(FromTransformer(label, next).g)
}

// AndThenEstimator appends an estimator stage: the estimator node is fed
// the current sink's output as training input, and a delegating node
// with a fit dependency on it becomes the new sink.
func (p *Pipeline) AndThenEstimator(label string, est Estimator) *Pipeline {
	return p.concat(FromEstimator(label, est).g)
}

// AndThenLabelEstimator appends a label-estimator stage.
func (p *Pipeline) AndThenLabelEstimator(label string, est LabelEstimator) *Pipeline {
	return p.concat(FromLabelEstimator(label, est).g)
}

// concat merges another valid graph after this pipeline's sink.
// Both inputs satisfy the graph invariants and the merge only renumbers
// indices, so the result is valid by construction.
func (p *Pipeline) concat(next Graph) *Pipeline {
	offset := len(p.g.Nodes)
	merged := p.g.Clone()
	merged.Nodes = append(merged.Nodes, next.Nodes...)

	for i := range next.Nodes {
		deps := make([]int, len(next.DataDeps[i]))
		for j, d := range next.DataDeps[i] {
			if d == Source {
				deps[j] = p.g.Sink
			} else {
				deps[j] = d + offset
			}
		}
		merged.DataDeps = append(merged.DataDeps, deps)
		merged.FitDeps = append(merged.FitDeps, next.FitDeps[i].offset(offset))
	}
	merged.Sink = next.Sink + offset
	return &Pipeline{g: merged}
}

// Graph returns a deep copy of the pipeline's structure.
func (p *Pipeline) Graph() Graph { return p.g.Clone() }

// NodeCount returns the number of nodes in the graph.
func (p *Pipeline) NodeCount() int { return len(p.g.Nodes) }

// Sink returns the index of the node whose output is the pipeline's
// result.
func (p *Pipeline) Sink() int { return p.g.Sink }

// TopoOrder returns the deterministic dependency-respecting evaluation
// order used by the apply paths.
func (p *Pipeline) TopoOrder() []int {
	order, _ := p.g.topoOrder() // validated at construction
	return order
}

// Fitted reports whether the pipeline is executable: no estimator or
// delegating nodes remain.
func (p *Pipeline) Fitted() bool {
	for _, n := range p.g.Nodes {
		if n.IsEstimator() || n.Kind == NodeKindDelegating {
			return false
		}
	}
	return true
}
