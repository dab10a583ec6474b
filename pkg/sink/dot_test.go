package sink

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid/justified"
)

func rowGraph() justified.Graph {
	return justified.Graph{
		Nodes: 4,
		Edges: []justified.Edge{
			{From: 0, To: 1, Cost: 0.5, Weight: 0.25},
			{From: 0, To: 2, Cost: 0.1, Weight: 0.01},
			{From: 1, To: 3, Cost: 0.2, Weight: 0.04},
			{From: 2, To: 3, Cost: 0, Weight: 0},
		},
		Path: []int{0, 2, 3},
	}
}

func TestRowsDOT(t *testing.T) {
	dot := RowsDOT(rowGraph())

	assert.True(t, strings.HasPrefix(dot, "digraph rows {"))
	for n := range 4 {
		assert.Contains(t, dot, "  n"+string(rune('0'+n))+" [label=")
	}
	assert.Contains(t, dot, `n0 -> n2 [label="0.1", penwidth=2.5`)
	assert.Contains(t, dot, `n2 -> n3 [label="0", penwidth=2.5`)
	assert.Contains(t, dot, `n0 -> n1 [label="0.5"];`)
	assert.Equal(t, 3, strings.Count(dot, `fillcolor="#a8d8ea"`))
}

func TestRenderDOT(t *testing.T) {
	svg, err := RenderDOT(context.Background(), RowsDOT(rowGraph()), "svg")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	_, err = RenderDOT(context.Background(), RowsDOT(rowGraph()), "pdf")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}
