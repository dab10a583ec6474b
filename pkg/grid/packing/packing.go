// Package packing fits every item into one fixed-ratio area, splitting the
// area so items keep their size and aspect ratio as closely as the weights
// ask for.
package packing

import (
	"math"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Name is the strategy kind.
const Name = "packing"

// WeightPriority selects how the size and ratio weights are chosen.
type WeightPriority string

const (
	// PriorityCustom uses SizeWeight and RatioWeight.
	PriorityCustom WeightPriority = "custom"
	// PrioritySize strongly prefers keeping item sizes.
	PrioritySize WeightPriority = "size"
	// PriorityRatio strongly prefers keeping aspect ratios.
	PriorityRatio WeightPriority = "ratio"
)

// Options configures a packing grid.
type Options struct {
	grid.Options

	// AspectRatio is the packed area's inline size over its content size.
	AspectRatio float64 `toml:"aspect_ratio" json:"aspectRatio"`
	// SizeWeight scales the cost of changing an item's area.
	SizeWeight float64 `toml:"size_weight" json:"sizeWeight"`
	// RatioWeight scales the cost of changing an item's aspect ratio.
	RatioWeight float64 `toml:"ratio_weight" json:"ratioWeight"`
	// WeightPriority overrides both weights unless it is custom.
	WeightPriority WeightPriority `toml:"weight_priority" json:"weightPriority"`
}

// DefaultOptions returns the packing defaults.
func DefaultOptions() Options {
	return Options{
		Options:        grid.DefaultOptions(),
		AspectRatio:    1,
		SizeWeight:     1,
		RatioWeight:    1,
		WeightPriority: PriorityCustom,
	}
}

var properties = map[string]grid.PropertyType{
	"aspectRatio":    grid.RenderProperty,
	"sizeWeight":     grid.RenderProperty,
	"ratioWeight":    grid.RenderProperty,
	"weightPriority": grid.RenderProperty,
}

func normalize(o Options) Options {
	if o.AspectRatio <= 0 || math.IsNaN(o.AspectRatio) || math.IsInf(o.AspectRatio, 0) {
		o.AspectRatio = 1
	}
	if o.SizeWeight < 0 || math.IsNaN(o.SizeWeight) {
		o.SizeWeight = 0
	}
	if o.RatioWeight < 0 || math.IsNaN(o.RatioWeight) {
		o.RatioWeight = 0
	}
	switch o.WeightPriority {
	case PrioritySize, PriorityRatio:
	default:
		o.WeightPriority = PriorityCustom
	}
	return o
}

// Strategy implements grid.Strategy for packing layouts.
type Strategy struct {
	opts Options
}

var _ grid.Strategy = (*Strategy)(nil)

// NewStrategy creates a packing strategy. Invalid values fall back to the
// defaults.
func NewStrategy(opts Options) *Strategy {
	return &Strategy{opts: normalize(opts)}
}

// Options returns the strategy options.
func (s *Strategy) Options() Options { return s.opts }

func (s *Strategy) Name() string { return Name }

func (s *Strategy) OutlineLength(grid.Env, []*grid.Item) int { return 1 }

func (s *Strategy) OutlineSize(grid.Env, []*grid.Item) float64 { return 0 }

func (s *Strategy) Properties() map[string]grid.PropertyType { return properties }

func (s *Strategy) Property(name string) (any, bool) {
	switch name {
	case "aspectRatio":
		return s.opts.AspectRatio, true
	case "sizeWeight":
		return s.opts.SizeWeight, true
	case "ratioWeight":
		return s.opts.RatioWeight, true
	case "weightPriority":
		return string(s.opts.WeightPriority), true
	}
	return nil, false
}

func (s *Strategy) SetProperty(name string, value any) error {
	o := s.opts
	var err error
	switch name {
	case "aspectRatio":
		o.AspectRatio, err = grid.AsFloat(value)
	case "sizeWeight":
		o.SizeWeight, err = grid.AsFloat(value)
	case "ratioWeight":
		o.RatioWeight, err = grid.AsFloat(value)
	case "weightPriority":
		var p string
		p, err = grid.AsString(value)
		if err == nil {
			switch WeightPriority(p) {
			case PriorityCustom, PrioritySize, PriorityRatio:
				o.WeightPriority = WeightPriority(p)
			default:
				err = errors.New(errors.ErrCodeInvalidOption, "unknown weight priority %q", p)
			}
		}
	default:
		return errors.New(errors.ErrCodeInvalidOption, "packing has no option %q", name)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "packing option %q", name)
	}
	s.opts = normalize(o)
	return nil
}

// Weights returns the effective size and ratio weights.
func (s *Strategy) Weights() (size, ratio float64) {
	switch s.opts.WeightPriority {
	case PrioritySize:
		return 100, 1
	case PriorityRatio:
		return 1, 100
	}
	return s.opts.SizeWeight, s.opts.RatioWeight
}

// ApplyGrid packs all items into one area as wide as the container.
func (s *Strategy) ApplyGrid(env grid.Env, items []*grid.Item, direction grid.Direction, outline []float64) grid.Outlines {
	gap := env.Gap
	inlineSize := env.ContainerInlineSize
	contentSize := inlineSize / s.opts.AspectRatio
	if len(items) == 0 || inlineSize <= 0 {
		return grid.Outlines{Start: cloneOr(outline), End: cloneOr(outline)}
	}

	var startPoint float64
	if direction == grid.DirectionStart {
		startPoint = grid.MinOf(outline) - contentSize - gap
	} else {
		startPoint = grid.MaxOf(outline)
	}
	endPoint := startPoint + contentSize + gap

	sizeWeight, ratioWeight := s.Weights()
	root := &box{}
	for _, item := range items {
		w, h := item.OrgInlineSize(), item.OrgContentSize()
		if w <= 0 || h <= 0 {
			w, h = 1, 1
		}
		root.insert(&box{orgInlineSize: w, orgContentSize: h, inlineSize: w, contentSize: h}, sizeWeight, ratioWeight)
		root.scaleTo(inlineSize+gap, contentSize+gap)
	}

	for i, item := range items {
		b := root.items[i]
		item.SetCSSGridRect(grid.GridRect{
			InlinePos:   b.inlinePos,
			ContentPos:  startPoint + b.contentPos,
			InlineSize:  b.inlineSize - gap,
			ContentSize: b.contentSize - gap,
		})
	}
	return grid.Outlines{Start: []float64{startPoint}, End: []float64{endPoint}}
}

func cloneOr(s []float64) []float64 {
	return append([]float64{}, s...)
}
