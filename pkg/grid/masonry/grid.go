package masonry

import (
	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Grid is a grid.Grid bound to a masonry strategy.
type Grid struct {
	*grid.Grid
	strategy *Strategy
}

// New creates a masonry grid on container.
func New(container *dom.Element, opts Options, options ...grid.Option) (*Grid, error) {
	s := NewStrategy(opts)
	g, err := grid.New(container, s, opts.Options, options...)
	if err != nil {
		return nil, err
	}
	return &Grid{Grid: g, strategy: s}, nil
}

// Column returns the configured column count; zero means derived.
func (g *Grid) Column() int {
	v, _ := g.Option("column")
	return v.(int)
}

// SetColumn fixes the column count.
func (g *Grid) SetColumn(column int) error { return g.SetOption("column", column) }

// SetColumnSize fixes the column width.
func (g *Grid) SetColumnSize(size float64) error { return g.SetOption("columnSize", size) }

// SetColumnSizeRatio forces an inline/content ratio on every item.
func (g *Grid) SetColumnSizeRatio(ratio float64) error {
	return g.SetOption("columnSizeRatio", ratio)
}

// SetAlign changes column alignment.
func (g *Grid) SetAlign(align Align) error { return g.SetOption("align", string(align)) }

// SetContentAlign changes content alignment.
func (g *Grid) SetContentAlign(align ContentAlign) error {
	return g.SetOption("contentAlign", string(align))
}
