package pipeline

import "fmt"

// Graph is the structural representation of a pipeline: a flat node
// arena with index-based dependency lists.
//
// DataDeps[i] lists the nodes whose outputs feed node i, in the order
// the operator consumes them; the [Source] sentinel stands for the
// external input. FitDeps[i] optionally names the estimator node whose
// fit product node i delegates to. Sink is the node whose output is the
// graph's result.
type Graph struct {
	Nodes    []Node
	DataDeps [][]int
	FitDeps  []FitDep
	Sink     int
}

// Clone returns a deep copy. Nodes hold interface values, which are
// shared; the structural slices are not.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes:    append([]Node(nil), g.Nodes...),
		DataDeps: make([][]int, len(g.DataDeps)),
		FitDeps:  append([]FitDep(nil), g.FitDeps...),
		Sink:     g.Sink,
	}
	for i, deps := range g.DataDeps {
		out.DataDeps[i] = append([]int(nil), deps...)
	}
	return out
}

// validate checks every structural invariant: list lengths, sink and
// dependency bounds, per-node payload consistency, fit targets, and
// acyclicity.
func (g Graph) validate() error {
	n := len(g.Nodes)
	if len(g.DataDeps) != n || len(g.FitDeps) != n {
		return fmt.Errorf("%w: %d nodes, %d data deps, %d fit deps",
			ErrDepsMismatch, n, len(g.DataDeps), len(g.FitDeps))
	}
	if g.Sink < 0 || g.Sink >= n {
		return fmt.Errorf("%w: sink %d of %d nodes", ErrSinkOutOfRange, g.Sink, n)
	}
	for i := range g.Nodes {
		if err := g.validateNode(i); err != nil {
			return err
		}
	}
	if _, err := g.topoOrder(); err != nil {
		return err
	}
	return nil
}

func (g Graph) validateNode(i int) error {
	node := g.Nodes[i]
	n := len(g.Nodes)

	for _, d := range g.DataDeps[i] {
		if d != Source && (d < 0 || d >= n) {
			return fmt.Errorf("%w: node %d depends on %d", ErrIndexOutOfRange, i, d)
		}
		if d != Source && g.Nodes[d].IsEstimator() {
			return fmt.Errorf("%w: node %d takes data from estimator node %d", ErrBadNode, i, d)
		}
	}
	if idx, ok := g.FitDeps[i].Index(); ok {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: node %d fits on %d", ErrIndexOutOfRange, i, idx)
		}
		if !g.Nodes[idx].IsEstimator() {
			return fmt.Errorf("%w: node %d fits on %s node %d", ErrBadFitTarget, i, g.Nodes[idx].Kind, idx)
		}
	}

	switch node.Kind {
	case NodeKindSource:
		if node.Op != nil || node.Est != nil || node.LabelEst != nil || len(g.DataDeps[i]) != 0 {
			return fmt.Errorf("%w: source node %d", ErrBadNode, i)
		}
	case NodeKindOperator:
		if node.Op == nil || node.Est != nil || node.LabelEst != nil {
			return fmt.Errorf("%w: operator node %d", ErrBadNode, i)
		}
		if len(g.DataDeps[i]) == 0 {
			return fmt.Errorf("%w: operator node %d has no data inputs", ErrBadNode, i)
		}
		if _, ok := g.FitDeps[i].Index(); ok {
			return fmt.Errorf("%w: operator node %d has a fit dependency", ErrBadNode, i)
		}
	case NodeKindEstimator:
		if node.Est == nil || node.Op != nil || node.LabelEst != nil {
			return fmt.Errorf("%w: estimator node %d", ErrBadNode, i)
		}
		if len(g.DataDeps[i]) != 1 {
			return fmt.Errorf("%w: estimator node %d needs exactly one training input", ErrBadNode, i)
		}
	case NodeKindLabelEstimator:
		if node.LabelEst == nil || node.Op != nil || node.Est != nil {
			return fmt.Errorf("%w: label-estimator node %d", ErrBadNode, i)
		}
		if len(g.DataDeps[i]) != 1 {
			return fmt.Errorf("%w: label-estimator node %d needs exactly one training input", ErrBadNode, i)
		}
	case NodeKindDelegating:
		if node.Op != nil || node.Est != nil || node.LabelEst != nil {
			return fmt.Errorf("%w: delegating node %d carries a payload", ErrBadNode, i)
		}
		if _, ok := g.FitDeps[i].Index(); !ok {
			return fmt.Errorf("%w: delegating node %d has no fit dependency", ErrBadNode, i)
		}
		if len(g.DataDeps[i]) == 0 {
			return fmt.Errorf("%w: delegating node %d has no data inputs", ErrBadNode, i)
		}
	default:
		return fmt.Errorf("%w: node %d has unknown kind %d", ErrBadNode, i, node.Kind)
	}
	return nil
}

// topoOrder returns a dependency-respecting evaluation order over both
// data and fit edges. The order is deterministic: Kahn's algorithm,
// always taking the smallest ready index. An incomplete order means a
// cycle.
func (g Graph) topoOrder() ([]int, error) {
	n := len(g.Nodes)
	indegree := make([]int, n)
	out := make([][]int, n)

	addEdge := func(from, to int) {
		out[from] = append(out[from], to)
		indegree[to]++
	}
	for i := range g.Nodes {
		for _, d := range g.DataDeps[i] {
			if d != Source {
				addEdge(d, i)
			}
		}
		if idx, ok := g.FitDeps[i].Index(); ok {
			addEdge(idx, i)
		}
	}

	order := make([]int, 0, n)
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, fmt.Errorf("%w: %d of %d nodes ordered", ErrGraphCycle, len(order), n)
		}
		done[next] = true
		order = append(order, next)
		for _, to := range out[next] {
			indegree[to]--
		}
	}
	return order, nil
}

// Pruned returns a copy with every node unreachable from the sink
// removed and the survivors renumbered, preserving relative index order.
// Reachability follows both data and fit edges.
func (g Graph) Pruned() Graph {
	n := len(g.Nodes)
	reach := make([]bool, n)

	var visit func(i int)
	visit = func(i int) {
		if reach[i] {
			return
		}
		reach[i] = true
		for _, d := range g.DataDeps[i] {
			if d != Source {
				visit(d)
			}
		}
		if idx, ok := g.FitDeps[i].Index(); ok {
			visit(idx)
		}
	}
	visit(g.Sink)

	remap := make([]int, n)
	out := Graph{}
	for i := 0; i < n; i++ {
		if !reach[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(out.Nodes)
		out.Nodes = append(out.Nodes, g.Nodes[i])
	}
	for i := 0; i < n; i++ {
		if !reach[i] {
			continue
		}
		deps := make([]int, len(g.DataDeps[i]))
		for j, d := range g.DataDeps[i] {
			if d == Source {
				deps[j] = Source
			} else {
				deps[j] = remap[d]
			}
		}
		out.DataDeps = append(out.DataDeps, deps)
		if idx, ok := g.FitDeps[i].Index(); ok {
			out.FitDeps = append(out.FitDeps, FitOn(remap[idx]))
		} else {
			out.FitDeps = append(out.FitDeps, NoFit())
		}
	}
	out.Sink = remap[g.Sink]
	return out
}
