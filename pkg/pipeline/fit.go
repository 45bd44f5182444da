package pipeline

import (
	"context"
	"fmt"

	"github.com/gantryml/gantry/pkg/dataset"
)

// Fit compiles the pipeline against training data: it walks the graph
// over data, fits every estimator node on its computed input, resolves
// every delegating node to its estimator's product, and returns a new
// immutable pipeline containing only source and operator nodes. The
// receiver is not modified.
//
// Fitting is eager and blocking. The first estimator failure aborts
// compilation with an error wrapping [ErrFit]. A pipeline containing
// label estimators must be fit through [Pipeline.FitLabeled].
//
// Fitting an already fitted pipeline returns the receiver unchanged.
func (p *Pipeline) Fit(ctx context.Context, data dataset.Collection) (*Pipeline, error) {
	for _, n := range p.g.Nodes {
		if n.Kind == NodeKindLabelEstimator {
			return nil, ErrLabelsRequired
		}
	}
	return p.fit(ctx, data, nil)
}

// FitLabeled is Fit for pipelines containing label estimators. Labels
// do not flow through the graph; every label-estimator node receives the
// labels collection as given, aligned element-for-element with data.
func (p *Pipeline) FitLabeled(ctx context.Context, data, labels dataset.Collection) (*Pipeline, error) {
	if labels == nil {
		return nil, fmt.Errorf("%w: nil labels", ErrFit)
	}
	return p.fit(ctx, data, labels)
}

func (p *Pipeline) fit(ctx context.Context, data, labels dataset.Collection) (*Pipeline, error) {
	if p.Fitted() {
		return p, nil
	}

	order, _ := p.g.topoOrder()
	outputs := make([]dataset.Collection, len(p.g.Nodes))
	products := make([]Transformer, len(p.g.Nodes))

	for _, i := range order {
		node := p.g.Nodes[i]
		switch node.Kind {
		case NodeKindSource:
			outputs[i] = data

		case NodeKindOperator:
			out, err := applyBulkOne(ctx, node.Op, p.gatherBulk(i, data, outputs), nil)
			if err != nil {
				return nil, err
			}
			outputs[i] = out

		case NodeKindEstimator:
			in := p.gatherBulk(i, data, outputs)[0]
			t, err := node.Est.Fit(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("%w: node %d (%s): %v", ErrFit, i, node.Label, err)
			}
			if t == nil {
				return nil, fmt.Errorf("%w: node %d (%s): estimator returned no transformer", ErrFit, i, node.Label)
			}
			products[i] = t

		case NodeKindLabelEstimator:
			in := p.gatherBulk(i, data, outputs)[0]
			t, err := node.LabelEst.FitLabeled(ctx, in, labels)
			if err != nil {
				return nil, fmt.Errorf("%w: node %d (%s): %v", ErrFit, i, node.Label, err)
			}
			if t == nil {
				return nil, fmt.Errorf("%w: node %d (%s): estimator returned no transformer", ErrFit, i, node.Label)
			}
			products[i] = t

		case NodeKindDelegating:
			est, _ := p.g.FitDeps[i].Index()
			op := products[est]
			out, err := applyBulkOne(ctx, op, p.gatherBulk(i, data, outputs), nil)
			if err != nil {
				return nil, fmt.Errorf("%w: node %d (%s): %v", ErrFit, i, node.Label, err)
			}
			outputs[i] = out
		}
	}

	// Rewrite: delegating nodes become operator nodes holding their
	// estimator's product; estimator nodes, now referenced by nothing,
	// are pruned from the executable graph.
	g := p.g.Clone()
	for i := range g.Nodes {
		if g.Nodes[i].Kind != NodeKindDelegating {
			continue
		}
		est, _ := g.FitDeps[i].Index()
		g.Nodes[i] = OperatorNode(g.Nodes[i].Label, products[est])
		g.FitDeps[i] = NoFit()
	}
	return FromGraph(g.Pruned())
}

// gatherBulk resolves node i's ordered data inputs during a bulk walk.
func (p *Pipeline) gatherBulk(i int, data dataset.Collection, outputs []dataset.Collection) []dataset.Collection {
	ins := make([]dataset.Collection, len(p.g.DataDeps[i]))
	for j, d := range p.g.DataDeps[i] {
		if d == Source {
			ins[j] = data
		} else {
			ins[j] = outputs[d]
		}
	}
	return ins
}
