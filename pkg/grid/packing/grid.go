package packing

import (
	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Grid is a grid.Grid bound to a packing strategy.
type Grid struct {
	*grid.Grid
	strategy *Strategy
}

// New creates a packing grid on container.
func New(container *dom.Element, opts Options, options ...grid.Option) (*Grid, error) {
	s := NewStrategy(opts)
	g, err := grid.New(container, s, opts.Options, options...)
	if err != nil {
		return nil, err
	}
	return &Grid{Grid: g, strategy: s}, nil
}

// SetAspectRatio sets the packed area's inline over content ratio.
func (g *Grid) SetAspectRatio(ratio float64) error { return g.SetOption("aspectRatio", ratio) }

// SetSizeWeight sets the weight of keeping item sizes.
func (g *Grid) SetSizeWeight(w float64) error { return g.SetOption("sizeWeight", w) }

// SetRatioWeight sets the weight of keeping item ratios.
func (g *Grid) SetRatioWeight(w float64) error { return g.SetOption("ratioWeight", w) }

// SetWeightPriority picks a weight preset.
func (g *Grid) SetWeightPriority(p WeightPriority) error {
	return g.SetOption("weightPriority", string(p))
}
