package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/gantryml/gantry/pkg/dataset"
)

// Apply resolves the sink value for a single item by walking the graph
// in dependency order, feeding each node its declared inputs. The
// pipeline must be fitted. Operator errors propagate unmodified.
//
// The single-item path never consults an optimizer; a rewrite pass is
// not worth its overhead for one element.
func (p *Pipeline) Apply(x any) (any, error) {
	if !p.Fitted() {
		return nil, ErrNotFitted
	}
	order, _ := p.g.topoOrder()
	outputs := make([]any, len(p.g.Nodes))

	for _, i := range order {
		node := p.g.Nodes[i]
		switch node.Kind {
		case NodeKindSource:
			outputs[i] = x
		case NodeKindOperator:
			ins := make([]any, len(p.g.DataDeps[i]))
			for j, d := range p.g.DataDeps[i] {
				if d == Source {
					ins[j] = x
				} else {
					ins[j] = outputs[d]
				}
			}
			out, err := applyOne(node.Op, ins)
			if err != nil {
				return nil, err
			}
			outputs[i] = out
		}
	}
	return outputs[p.g.Sink], nil
}

// ApplyBulk walks the graph over a whole collection, invoking each
// node's bulk path. This is the literal per-node walk; use
// [Pipeline.ApplyBulkWith] to run a rewrite pass first.
func (p *Pipeline) ApplyBulk(ctx context.Context, data dataset.Collection) (dataset.Collection, error) {
	return p.ApplyBulkWith(ctx, data, nil)
}

// ApplyBulkWith is ApplyBulk with an optional optimizer. A nil optimizer
// is the identity transform. The optimizer runs once, before the walk;
// if it errors, panics, or produces an invalid graph, the unoptimized
// graph is used instead and the failure is logged, not returned.
func (p *Pipeline) ApplyBulkWith(ctx context.Context, data dataset.Collection, opt Optimizer) (dataset.Collection, error) {
	if !p.Fitted() {
		return nil, ErrNotFitted
	}

	g := p.g
	if opt != nil {
		optimized, err := runOptimizer(opt, p.g)
		if err != nil {
			log.Default().Warn("optimizer failed, executing unoptimized graph", "err", err)
		} else {
			g = optimized
		}
	}
	return applyBulkGraph(ctx, g, data, opt)
}

// ApplyBulkHinted implements [HintedTransformer], so a nested pipeline
// receives the outer execution's optimizer hint.
func (p *Pipeline) ApplyBulkHinted(ctx context.Context, data dataset.Collection, hint Optimizer) (dataset.Collection, error) {
	return p.ApplyBulkWith(ctx, data, hint)
}

// applyBulkGraph performs the bulk dependency walk over an already
// validated, fitted graph.
func applyBulkGraph(ctx context.Context, g Graph, data dataset.Collection, hint Optimizer) (dataset.Collection, error) {
	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}
	outputs := make([]dataset.Collection, len(g.Nodes))

	for _, i := range order {
		node := g.Nodes[i]
		switch node.Kind {
		case NodeKindSource:
			outputs[i] = data
		case NodeKindOperator:
			ins := make([]dataset.Collection, len(g.DataDeps[i]))
			for j, d := range g.DataDeps[i] {
				if d == Source {
					ins[j] = data
				} else {
					ins[j] = outputs[d]
				}
			}
			out, err := applyBulkOne(ctx, node.Op, ins, hint)
			if err != nil {
				return nil, err
			}
			outputs[i] = out
		}
	}
	return outputs[g.Sink], nil
}

// applyOne feeds a transformer its single-item inputs. Plain
// transformers consume the first dependency output; multi-input
// operators opt in via [VariadicTransformer].
func applyOne(op Transformer, ins []any) (any, error) {
	if vt, ok := op.(VariadicTransformer); ok {
		return vt.ApplyAll(ins)
	}
	return op.Apply(ins[0])
}

// applyBulkOne is applyOne for the bulk path, additionally forwarding
// the optimizer hint to transformers that can use it.
func applyBulkOne(ctx context.Context, op Transformer, ins []dataset.Collection, hint Optimizer) (dataset.Collection, error) {
	if vt, ok := op.(VariadicTransformer); ok {
		return vt.ApplyBulkAll(ctx, ins)
	}
	if ht, ok := op.(HintedTransformer); ok && hint != nil {
		return ht.ApplyBulkHinted(ctx, ins[0], hint)
	}
	return op.ApplyBulk(ctx, ins[0])
}

// Ensure Pipeline satisfies the operator contracts.
var (
	_ Transformer       = (*Pipeline)(nil)
	_ HintedTransformer = (*Pipeline)(nil)
)
