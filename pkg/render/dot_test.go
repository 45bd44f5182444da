package render

import (
	"strings"
	"testing"

	"github.com/gantryml/gantry/pkg/ops"
	"github.com/gantryml/gantry/pkg/pipeline"
)

func TestToDOT_Chain(t *testing.T) {
	p := pipeline.FromTransformer("scale", ops.Scale(2)).
		AndThenNamed("offset", ops.Offset(1))

	dot := ToDOT(p.Graph(), Options{})

	for _, want := range []string{
		"digraph pipeline {",
		"rankdir=LR",
		`"source"`,
		`label="scale"`,
		`label="offset"`,
		`"source" -> "n0"`,
		`"n0" -> "n1"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_FitEdges(t *testing.T) {
	p := pipeline.FromEstimator("center", ops.Center{})

	dot := ToDOT(p.Graph(), Options{})
	if !strings.Contains(dot, `label="fit"`) {
		t.Errorf("expected dashed fit edge in:\n%s", dot)
	}
	if !strings.Contains(dot, `"n0" -> "n1" [style=dashed, label="fit"]`) {
		t.Errorf("expected fit edge from estimator to delegating node in:\n%s", dot)
	}
}

func TestToDOT_Detailed(t *testing.T) {
	p := pipeline.FromTransformer("scale", ops.Scale(2))

	dot := ToDOT(p.Graph(), Options{Detailed: true})
	if !strings.Contains(dot, "n0: operator") {
		t.Errorf("detailed output missing node kind:\n%s", dot)
	}
}

func TestToDOT_OmitsUnusedSource(t *testing.T) {
	g := pipeline.Graph{
		Nodes:    []pipeline.Node{pipeline.SourceNode("in"), pipeline.OperatorNode("scale", ops.Scale(2))},
		DataDeps: [][]int{{}, {0}},
		FitDeps:  []pipeline.FitDep{pipeline.NoFit(), pipeline.NoFit()},
		Sink:     1,
	}

	dot := ToDOT(g, Options{})
	if strings.Contains(dot, `"source" [`) {
		t.Errorf("source entry node drawn for graph that never references it:\n%s", dot)
	}
}
