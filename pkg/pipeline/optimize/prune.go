package optimize

import "github.com/gantryml/gantry/pkg/pipeline"

// Prune removes every node unreachable from the sink and renumbers the
// remainder. Dead nodes contribute nothing to the sink value, so the
// rewrite is trivially output-preserving; it saves the bulk walk from
// evaluating branches whose results are discarded.
func Prune(g pipeline.Graph) (pipeline.Graph, error) {
	return g.Pruned(), nil
}
