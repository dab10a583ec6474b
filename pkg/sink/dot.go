package sink

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid/justified"
)

// RowsDOT converts a justified row graph to Graphviz DOT. Nodes are cut
// points between items; an edge i -> j is the candidate row items[i:j]
// labeled with its cost. Edges on the chosen path are drawn bold.
func RowsDOT(g justified.Graph) string {
	onPath := make(map[[2]int]bool, len(g.Path))
	for i := 1; i < len(g.Path); i++ {
		onPath[[2]int{g.Path[i-1], g.Path[i]}] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph rows {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=10, color=\"#999999\"];\n")
	buf.WriteString("\n")

	for n := 0; n < g.Nodes; n++ {
		attrs := ""
		if slices.Contains(g.Path, n) {
			attrs = ` fillcolor="#a8d8ea"`
		}
		fmt.Fprintf(&buf, "  n%d [label=\"%d\"%s];\n", n, n, attrs)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := fmt.Sprintf("label=\"%.3g\"", e.Cost)
		if onPath[[2]int{e.From, e.To}] {
			attrs += `, penwidth=2.5, color="#333333"`
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOT lays out a DOT graph with Graphviz and writes it as SVG or PNG.
func RenderDOT(ctx context.Context, dot, format string) ([]byte, error) {
	var f graphviz.Format
	switch format {
	case "svg":
		f = graphviz.SVG
	case "png":
		f = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "graphviz cannot write %q (must be svg or png)", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, f, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return buf.Bytes(), nil
}
