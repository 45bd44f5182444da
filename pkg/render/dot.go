// Package render generates Graphviz visualizations of pipeline graphs.
// Data dependencies are drawn as solid edges, fit dependencies as dashed
// edges labeled "fit", and the external source as a distinct entry node.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gantryml/gantry/pkg/pipeline"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes node indices and kinds in labels.
	// When false, only the node label is shown.
	Detailed bool
}

// ToDOT converts a pipeline graph to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG].
func ToDOT(g pipeline.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph pipeline {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	if usesSource(g) {
		buf.WriteString("  \"source\" [shape=ellipse, fillcolor=lightyellow];\n")
	}
	for i, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(i), strings.Join(nodeAttrs(i, n, g, opts), ", "))
	}

	buf.WriteString("\n")
	for i := range g.Nodes {
		for _, d := range g.DataDeps[i] {
			from := "source"
			if d != pipeline.Source {
				from = nodeID(d)
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", from, nodeID(i))
		}
		if idx, ok := g.FitDeps[i].Index(); ok {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, label=\"fit\"];\n", nodeID(idx), nodeID(i))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func usesSource(g pipeline.Graph) bool {
	for i := range g.Nodes {
		for _, d := range g.DataDeps[i] {
			if d == pipeline.Source {
				return true
			}
		}
	}
	return false
}

func nodeID(i int) string { return fmt.Sprintf("n%d", i) }

func nodeAttrs(i int, n pipeline.Node, g pipeline.Graph, opts Options) []string {
	label := n.Label
	if label == "" {
		label = n.Kind.String()
	}
	if opts.Detailed {
		label = fmt.Sprintf("%s\nn%d: %s", label, i, n.Kind)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}

	switch {
	case n.Kind == pipeline.NodeKindDelegating:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case n.IsEstimator():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightblue")
	case i == g.Sink:
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
