// Package masonry places items in columns, each item going to the column
// whose frontier is nearest.
package masonry

import (
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Name is the strategy kind.
const Name = "masonry"

// Align positions the columns inside the container.
type Align string

const (
	AlignStart   Align = "start"
	AlignCenter  Align = "center"
	AlignEnd     Align = "end"
	AlignJustify Align = "justify"
	AlignStretch Align = "stretch"
)

// ContentAlign controls how item positions relate along the content axis.
type ContentAlign string

const (
	// ContentAlignMasonry lets every item rise to its column's frontier.
	ContentAlignMasonry ContentAlign = "masonry"
	// ContentAlignStart keeps items in order: an item never starts above the
	// one placed before it.
	ContentAlignStart ContentAlign = "start"
)

// Options configures a masonry grid.
type Options struct {
	grid.Options

	// Column fixes the column count. Zero derives it from the container and
	// the first plain item.
	Column int `toml:"column" json:"column"`
	// ColumnSize fixes the column width. Zero derives it.
	ColumnSize float64 `toml:"column_size" json:"columnSize"`
	// ColumnSizeRatio forces inline/content ratio on every item when > 0.
	ColumnSizeRatio            float64      `toml:"column_size_ratio" json:"columnSizeRatio"`
	Align                      Align        `toml:"align" json:"align"`
	ContentAlign               ContentAlign `toml:"content_align" json:"contentAlign"`
	ColumnCalculationThreshold float64      `toml:"column_calculation_threshold" json:"columnCalculationThreshold"`
}

// DefaultOptions returns the masonry defaults.
func DefaultOptions() Options {
	return Options{
		Options:                    grid.DefaultOptions(),
		Align:                      AlignJustify,
		ContentAlign:               ContentAlignMasonry,
		ColumnCalculationThreshold: 0.5,
	}
}

var properties = map[string]grid.PropertyType{
	"column":                     grid.RenderProperty,
	"columnSize":                 grid.RenderProperty,
	"columnSizeRatio":            grid.RenderProperty,
	"align":                      grid.RenderProperty,
	"contentAlign":               grid.RenderProperty,
	"columnCalculationThreshold": grid.RenderProperty,
}

// Strategy implements grid.Strategy for masonry layouts.
type Strategy struct {
	opts Options
}

var _ grid.Strategy = (*Strategy)(nil)

// NewStrategy creates a masonry strategy. Invalid values are clamped.
func NewStrategy(opts Options) *Strategy {
	return &Strategy{opts: normalize(opts)}
}

func normalize(o Options) Options {
	if o.Column < 0 {
		o.Column = 0
	}
	if o.ColumnSize < 0 || math.IsNaN(o.ColumnSize) {
		o.ColumnSize = 0
	}
	if o.ColumnSizeRatio < 0 || math.IsNaN(o.ColumnSizeRatio) {
		o.ColumnSizeRatio = 0
	}
	switch o.Align {
	case AlignStart, AlignCenter, AlignEnd, AlignJustify, AlignStretch:
	default:
		o.Align = AlignJustify
	}
	if o.ContentAlign != ContentAlignStart {
		o.ContentAlign = ContentAlignMasonry
	}
	if o.ColumnCalculationThreshold < 0 || math.IsNaN(o.ColumnCalculationThreshold) {
		o.ColumnCalculationThreshold = 0
	}
	return o
}

// Options returns the strategy options.
func (s *Strategy) Options() Options { return s.opts }

func (s *Strategy) Name() string { return Name }

func (s *Strategy) Properties() map[string]grid.PropertyType { return properties }

func (s *Strategy) Property(name string) (any, bool) {
	switch name {
	case "column":
		return s.opts.Column, true
	case "columnSize":
		return s.opts.ColumnSize, true
	case "columnSizeRatio":
		return s.opts.ColumnSizeRatio, true
	case "align":
		return s.opts.Align, true
	case "contentAlign":
		return s.opts.ContentAlign, true
	case "columnCalculationThreshold":
		return s.opts.ColumnCalculationThreshold, true
	}
	return nil, false
}

func (s *Strategy) SetProperty(name string, value any) error {
	o := s.opts
	var err error
	switch name {
	case "column":
		o.Column, err = grid.AsInt(value)
	case "columnSize":
		o.ColumnSize, err = grid.AsFloat(value)
	case "columnSizeRatio":
		o.ColumnSizeRatio, err = grid.AsFloat(value)
	case "align":
		var v string
		if v, err = grid.AsString(value); err == nil {
			o.Align = Align(v)
		}
	case "contentAlign":
		var v string
		if v, err = grid.AsString(value); err == nil {
			o.ContentAlign = ContentAlign(v)
		}
	case "columnCalculationThreshold":
		o.ColumnCalculationThreshold, err = grid.AsFloat(value)
	default:
		return errors.New(errors.ErrCodeInvalidOption, "masonry has no option %q", name)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "masonry option %q", name)
	}
	s.opts = normalize(o)
	return nil
}

// OutlineSize returns the column width: stretched to fill the container, the
// configured size, or the measured width of the first plain item.
func (s *Strategy) OutlineSize(env grid.Env, items []*grid.Item) float64 {
	if s.opts.Align == AlignStretch {
		column := s.opts.Column
		if column == 0 {
			column = env.OutlineLength
		}
		column = max(column, 1)
		return (env.ContainerInlineSize+env.Gap)/float64(column) - env.Gap
	}
	if size := s.opts.ColumnSize; size > 0 {
		return size
	}
	if env.OutlineSize > 0 {
		return env.OutlineSize
	}
	if len(items) == 0 {
		return 0
	}
	checked := items[0]
	for _, item := range items {
		if item.UpdateState != grid.Updated || item.InlineSize() == 0 ||
			columnAttr(item, "column") != 1 || columnAttr(item, "maxColumn") != 1 {
			continue
		}
		checked = item
		break
	}
	return checked.InlineSize()
}

// OutlineLength returns the column count.
func (s *Strategy) OutlineLength(env grid.Env, items []*grid.Item) int {
	if s.opts.Column > 0 {
		return s.opts.Column
	}
	if env.OutlineLength > 0 {
		return env.OutlineLength
	}
	size := s.OutlineSize(env, items)
	step := size - s.opts.ColumnCalculationThreshold + env.Gap
	if size <= 0 || step <= 0 || env.ContainerInlineSize <= 0 {
		return 1
	}
	return max(1, int(math.Floor((env.ContainerInlineSize+env.Gap)/step)))
}

// ApplyGrid places items column by column. For the end direction items are
// placed in order below the outline; for the start direction in reverse
// order above it.
func (s *Strategy) ApplyGrid(env grid.Env, items []*grid.Item, direction grid.Direction, outline []float64) grid.Outlines {
	for _, item := range items {
		item.IsRestoreOrgCSSText = false
	}
	columnSize := s.OutlineSize(env, items)
	column := s.OutlineLength(env, items)
	gap := env.Gap
	poses := s.alignPoses(env, column, columnSize)
	isEnd := direction != grid.DirectionStart

	var startOutline []float64
	if len(outline) == column {
		startOutline = slices.Clone(outline)
	} else {
		point := 0.0
		if len(outline) > 0 {
			if isEnd {
				point = slices.Max(outline)
			} else {
				point = slices.Min(outline)
			}
		}
		startOutline = make([]float64, column)
		for i := range startOutline {
			startOutline[i] = point
		}
	}
	endOutline := slices.Clone(startOutline)

	columnDist := 0.0
	if column > 1 {
		columnDist = poses[1] - poses[0]
	}
	isStretch := s.opts.Align == AlignStretch
	isStartContentAlign := isEnd && s.opts.ContentAlign == ContentAlignStart
	startPoint := math.Inf(-1)
	if isStartContentAlign {
		startPoint = slices.Min(endOutline)
	}

	n := len(items)
	for i := 0; i < n; i++ {
		item := items[i]
		if !isEnd {
			item = items[n-1-i]
		}
		columnAttribute := columnAttr(item, "column")
		maxColumnAttribute := columnAttr(item, "maxColumn")
		contentSize := item.ComputedContentSize()

		count := columnAttribute
		if count <= 0 {
			count = column
			if columnDist > 0 {
				count = max(1, int(math.Ceil((item.ComputedInlineSize()+gap)/columnDist)))
			}
		}
		count = min(column, count)
		maxCount := min(column, max(count, maxColumnAttribute))

		index := columnIndex(endOutline, count, isEnd)
		contentPos := columnPoint(endOutline, index, count, isEnd)
		if isStartContentAlign && startPoint != contentPos {
			startPoint = math.Max(startPoint, contentPos)
			contentPos = startPoint
		}

		for count < maxCount {
			nextEnd := index + count
			prev := index - 1
			if isEnd && (nextEnd >= column || endOutline[nextEnd] > contentPos) {
				break
			}
			if !isEnd && (prev < 0 || endOutline[prev] < contentPos) {
				break
			}
			if !isEnd {
				index--
			}
			count++
		}
		index = max(0, index)
		count = min(column-index, count)

		if (columnAttribute > 0 && count > 1) || isStretch {
			next := float64(count-1)*columnDist + columnSize
			if cur, ok := item.CSSInlineSize(); !ok || cur != next {
				item.ShouldReupdate = true
			}
			item.SetCSSInlineSize(next)
		}
		if ratio := s.opts.ColumnSizeRatio; ratio > 0 {
			contentSize = item.ComputedInlineSize() / ratio
			item.SetCSSContentSize(contentSize)
		}
		if !isEnd {
			contentPos -= gap + contentSize
		}
		item.SetCSSInlinePos(poses[index])
		item.SetCSSContentPos(contentPos)

		next := contentPos
		if isEnd {
			next = contentPos + contentSize + gap
		}
		for j := 0; j < count; j++ {
			endOutline[index+j] = next
		}
	}

	if isEnd {
		return grid.Outlines{Start: startOutline, End: endOutline}
	}
	return grid.Outlines{Start: endOutline, End: startOutline}
}

// alignPoses returns the inline position of every column.
func (s *Strategy) alignPoses(env grid.Env, column int, columnSize float64) []float64 {
	container := env.ContainerInlineSize
	var offset, dist float64
	switch s.opts.Align {
	case AlignJustify, AlignStretch:
		if column > 1 {
			dist = math.Max((container-columnSize)/float64(column-1), columnSize+env.Gap)
		}
	default:
		dist = columnSize + env.Gap
		total := float64(column-1)*dist + columnSize
		switch s.opts.Align {
		case AlignCenter:
			offset = (container - total) / 2
		case AlignEnd:
			offset = container - total
		}
	}
	poses := make([]float64, column)
	for i := range poses {
		poses[i] = offset + float64(i)*dist
	}
	return poses
}

// columnAttr reads an integer span attribute. Absent means 1; "0" asks for
// the span to be derived from the item's width.
func columnAttr(item *grid.Item, name string) int {
	v, ok := item.Attributes[name]
	if !ok || v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 1
		}
		n = int(f)
	}
	return max(0, n)
}

// columnPoint is the frontier of a window of count columns starting at index:
// its highest point for the end direction, its lowest for the start direction.
func columnPoint(outline []float64, index, count int, isEnd bool) float64 {
	window := outline[index : index+count]
	if isEnd {
		return slices.Max(window)
	}
	return slices.Min(window)
}

// columnIndex returns the window whose frontier is nearest: the first lowest
// for the end direction, the last highest for the start direction.
func columnIndex(outline []float64, count int, isEnd bool) int {
	best := 0
	var bestPoint float64
	for i := 0; i+count <= len(outline); i++ {
		p := columnPoint(outline, i, count, isEnd)
		switch {
		case i == 0:
			bestPoint = p
		case isEnd && p < bestPoint:
			best, bestPoint = i, p
		case !isEnd && p >= bestPoint:
			best, bestPoint = i, p
		}
	}
	return best
}
