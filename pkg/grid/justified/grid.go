package justified

import (
	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Grid is a grid.Grid bound to a justified strategy.
type Grid struct {
	*grid.Grid
	strategy *Strategy
}

// New creates a justified grid on container.
func New(container *dom.Element, opts Options, options ...grid.Option) (*Grid, error) {
	s := NewStrategy(opts)
	g, err := grid.New(container, s, opts.Options, options...)
	if err != nil {
		return nil, err
	}
	return &Grid{Grid: g, strategy: s}, nil
}

// SetColumnRange bounds the items per row.
func (g *Grid) SetColumnRange(lo, hi int) error {
	return g.SetOption("columnRange", [2]int{lo, hi})
}

// SetRowRange bounds the number of rows; [0, 0] disables the bound.
func (g *Grid) SetRowRange(lo, hi int) error {
	return g.SetOption("rowRange", [2]int{lo, hi})
}

// SetSizeRange bounds the row height.
func (g *Grid) SetSizeRange(lo, hi float64) error {
	return g.SetOption("sizeRange", [2]float64{lo, hi})
}

// SetDisplayedRow limits the rows counted toward the end outline.
func (g *Grid) SetDisplayedRow(n int) error { return g.SetOption("displayedRow", n) }

// SetCroppedSize toggles cropped rows.
func (g *Grid) SetCroppedSize(cropped bool) error { return g.SetOption("isCroppedSize", cropped) }

// PathGraph returns the row graph of the current items.
func (g *Grid) PathGraph() Graph {
	var graph Graph
	g.Inspect(func(env grid.Env, items []*grid.Item) {
		graph = g.strategy.PathGraph(env, items)
	})
	return graph
}
