package frame

import (
	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Grid is a grid.Grid bound to a frame strategy.
type Grid struct {
	*grid.Grid
	strategy *Strategy
}

// New creates a frame grid on container.
func New(container *dom.Element, opts Options, options ...grid.Option) (*Grid, error) {
	s := NewStrategy(opts)
	g, err := grid.New(container, s, opts.Options, options...)
	if err != nil {
		return nil, err
	}
	return &Grid{Grid: g, strategy: s}, nil
}

// Frame returns the current template.
func (g *Grid) Frame() [][]int {
	v, _ := g.Option("frame")
	return v.([][]int)
}

// SetFrame replaces the template.
func (g *Grid) SetFrame(frame [][]int) error { return g.SetOption("frame", frame) }

// SetTemplate parses and applies a textual template.
func (g *Grid) SetTemplate(template string) error { return g.SetOption("frame", template) }

// SetFrameFill toggles frame fill.
func (g *Grid) SetFrameFill(fill bool) error { return g.SetOption("useFrameFill", fill) }

// SetRectSize fixes the cell size; zero fields are derived.
func (g *Grid) SetRectSize(size RectSize) error { return g.SetOption("rectSize", size) }

// Layout returns the parsed template.
func (g *Grid) Layout() Layout {
	var layout Layout
	g.Inspect(func(grid.Env, []*grid.Item) { layout = g.strategy.Layout() })
	return layout
}
