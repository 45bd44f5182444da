package pipeline

// Source is the sentinel dependency index standing for the pipeline's
// external input. It may appear anywhere a node index is accepted in a
// data dependency list.
const Source = -1

// NodeKind discriminates what a graph node holds.
type NodeKind int

const (
	// NodeKindSource is an explicit stand-in for the external input.
	// Most graphs reference the input through the [Source] sentinel
	// instead, but an explicit node is valid.
	NodeKindSource NodeKind = iota

	// NodeKindOperator holds a fitted transformer.
	NodeKindOperator

	// NodeKindEstimator holds an unfitted estimator. It exists only
	// before fitting; [Pipeline.Fit] removes it.
	NodeKindEstimator

	// NodeKindLabelEstimator holds an unfitted label estimator.
	NodeKindLabelEstimator

	// NodeKindDelegating is a placeholder that delegates to the fit
	// product of the estimator named by its fit dependency. Fitting
	// rewrites it into an operator node.
	NodeKindDelegating
)

// String returns a short lowercase name for the kind.
func (k NodeKind) String() string {
	switch k {
	case NodeKindSource:
		return "source"
	case NodeKindOperator:
		return "operator"
	case NodeKindEstimator:
		return "estimator"
	case NodeKindLabelEstimator:
		return "label-estimator"
	case NodeKindDelegating:
		return "delegating"
	default:
		return "unknown"
	}
}

// Node is one vertex in a pipeline graph. Exactly one payload field is
// set, matching Kind; [Graph.validate] enforces the pairing.
type Node struct {
	Kind  NodeKind
	Label string

	Op       Transformer    // NodeKindOperator
	Est      Estimator      // NodeKindEstimator
	LabelEst LabelEstimator // NodeKindLabelEstimator
}

// SourceNode creates an explicit source node.
func SourceNode(label string) Node {
	return Node{Kind: NodeKindSource, Label: label}
}

// OperatorNode creates a node holding a fitted transformer.
func OperatorNode(label string, t Transformer) Node {
	return Node{Kind: NodeKindOperator, Label: label, Op: t}
}

// EstimatorNode creates a node holding an unfitted estimator.
func EstimatorNode(label string, est Estimator) Node {
	return Node{Kind: NodeKindEstimator, Label: label, Est: est}
}

// LabelEstimatorNode creates a node holding an unfitted label estimator.
func LabelEstimatorNode(label string, est LabelEstimator) Node {
	return Node{Kind: NodeKindLabelEstimator, Label: label, LabelEst: est}
}

// DelegatingNode creates a placeholder node that resolves to its fit
// dependency's product during fitting.
func DelegatingNode(label string) Node {
	return Node{Kind: NodeKindDelegating, Label: label}
}

// IsEstimator reports whether the node holds an unfitted estimator of
// either flavor.
func (n Node) IsEstimator() bool {
	return n.Kind == NodeKindEstimator || n.Kind == NodeKindLabelEstimator
}

// FitDep is an optional reference from a delegating node to the
// estimator node whose fit product it will execute. The zero value means
// no fit dependency.
type FitDep struct {
	index   int
	present bool
}

// FitOn creates a fit dependency on estimator node i.
func FitOn(i int) FitDep { return FitDep{index: i, present: true} }

// NoFit is the absent fit dependency.
func NoFit() FitDep { return FitDep{} }

// Index returns the referenced node index and whether the dependency is
// present.
func (d FitDep) Index() (int, bool) { return d.index, d.present }

// offset shifts a present dependency by n node indices. Used when
// inlining one graph's arena into another.
func (d FitDep) offset(n int) FitDep {
	if !d.present {
		return d
	}
	return FitDep{index: d.index + n, present: true}
}
