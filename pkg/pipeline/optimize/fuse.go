package optimize

import (
	"fmt"

	"github.com/gantryml/gantry/pkg/pipeline"
)

// FuseMaps fuses linear chains of map-style operator nodes into single
// composed nodes, so a chain of k element-wise stages costs one Map pass
// over the collection instead of k.
//
// A pair (i, j) fuses when j's only data input is i, i's output feeds
// nothing but j, i is not the sink, and both operators are plain
// [pipeline.Func] values. Operators with bulk-native, hinted, or
// variadic implementations are left alone: fusing them would discard
// their chosen execution strategy. Composition preserves outputs by the
// bulk/single equivalence law, so the rewrite is observationally
// neutral.
func FuseMaps(g pipeline.Graph) (pipeline.Graph, error) {
	for {
		i, j, ok := findFusable(g)
		if !ok {
			return g.Pruned(), nil
		}

		a, okA := g.Nodes[i].Op.(pipeline.Func)
		b, okB := g.Nodes[j].Op.(pipeline.Func)
		if !okA || !okB {
			return pipeline.Graph{}, fmt.Errorf("fuse: nodes %d,%d are not plain funcs", i, j)
		}

		label := g.Nodes[i].Label + "+" + g.Nodes[j].Label
		g.Nodes[j] = pipeline.OperatorNode(label, pipeline.Compose(a, b))
		g.DataDeps[j] = append([]int(nil), g.DataDeps[i]...)
		// node i is now dead; the final Pruned() call drops it
		g.DataDeps[i] = []int{pipeline.Source}
	}
}

// findFusable locates one fusable producer/consumer pair, scanning in
// ascending index order for determinism.
func findFusable(g pipeline.Graph) (int, int, bool) {
	consumers := make([][]int, len(g.Nodes))
	for j := range g.Nodes {
		for _, d := range g.DataDeps[j] {
			if d != pipeline.Source {
				consumers[d] = append(consumers[d], j)
			}
		}
	}

	for j := range g.Nodes {
		if g.Nodes[j].Kind != pipeline.NodeKindOperator || len(g.DataDeps[j]) != 1 {
			continue
		}
		i := g.DataDeps[j][0]
		if i == pipeline.Source || i == g.Sink {
			continue
		}
		if g.Nodes[i].Kind != pipeline.NodeKindOperator || len(consumers[i]) != 1 {
			continue
		}
		if _, ok := g.Nodes[i].Op.(pipeline.Func); !ok {
			continue
		}
		if _, ok := g.Nodes[j].Op.(pipeline.Func); !ok {
			continue
		}
		return i, j, true
	}
	return 0, 0, false
}
