// Package justified partitions items into rows that exactly fill the
// container, keeping every item's aspect ratio.
//
// Row breaks are chosen by a shortest path over cut points: node i means
// "a row starts at item i", and an edge i→j is the row items[i:j] weighted by
// how far its height falls outside the configured size range.
package justified

import (
	"math"
	"strconv"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Name is the strategy kind.
const Name = "justified"

// overflowPenalty makes rows below an unbounded size range more expensive
// than any row inside it.
const overflowPenalty = 1e9

// Options configures a justified grid.
type Options struct {
	grid.Options

	// ColumnRange bounds the number of items per row.
	ColumnRange [2]int `toml:"column_range" json:"columnRange"`
	// RowRange bounds the number of rows. [0, 0] disables the row search.
	RowRange [2]int `toml:"row_range" json:"rowRange"`
	// SizeRange bounds the row height.
	SizeRange [2]float64 `toml:"size_range" json:"-"`
	// DisplayedRow limits how many rows count toward the end outline; -1
	// counts all.
	DisplayedRow int `toml:"displayed_row" json:"displayedRow"`
	// IsCroppedSize clamps every row to SizeRange and scales items to fill
	// the row, cropping their aspect ratio.
	IsCroppedSize bool `toml:"is_cropped_size" json:"isCroppedSize"`
}

// DefaultOptions returns the justified defaults.
func DefaultOptions() Options {
	return Options{
		Options:      grid.DefaultOptions(),
		ColumnRange:  [2]int{1, 8},
		SizeRange:    [2]float64{0, math.Inf(1)},
		DisplayedRow: -1,
	}
}

var properties = map[string]grid.PropertyType{
	"columnRange":   grid.RenderProperty,
	"rowRange":      grid.RenderProperty,
	"sizeRange":     grid.RenderProperty,
	"displayedRow":  grid.RenderProperty,
	"isCroppedSize": grid.RenderProperty,
}

func normalize(o Options) Options {
	lo, hi := o.ColumnRange[0], o.ColumnRange[1]
	lo = max(lo, 1)
	if hi < lo {
		hi = lo
	}
	o.ColumnRange = [2]int{lo, hi}

	lo, hi = max(o.RowRange[0], 0), max(o.RowRange[1], 0)
	if hi < lo {
		lo, hi = hi, lo
	}
	o.RowRange = [2]int{lo, hi}

	minSize, maxSize := o.SizeRange[0], o.SizeRange[1]
	if minSize < 0 || math.IsNaN(minSize) || math.IsInf(minSize, 0) {
		minSize = 0
	}
	if math.IsNaN(maxSize) || maxSize <= 0 {
		maxSize = math.Inf(1)
	}
	if maxSize < minSize {
		maxSize = minSize
	}
	o.SizeRange = [2]float64{minSize, maxSize}

	if o.DisplayedRow < 0 {
		o.DisplayedRow = -1
	}
	return o
}

// Strategy implements grid.Strategy for justified layouts.
type Strategy struct {
	opts Options
}

var _ grid.Strategy = (*Strategy)(nil)

// NewStrategy creates a justified strategy. Invalid ranges are clamped.
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
	case "columnRange":
		return s.opts.ColumnRange, true
	case "rowRange":
		return s.opts.RowRange, true
	case "sizeRange":
		return s.opts.SizeRange, true
	case "displayedRow":
		return s.opts.DisplayedRow, true
	case "isCroppedSize":
		return s.opts.IsCroppedSize, true
	}
	return nil, false
}

func (s *Strategy) SetProperty(name string, value any) error {
	o := s.opts
	var err error
	switch name {
	case "columnRange":
		o.ColumnRange, err = grid.AsIntPair(value)
	case "rowRange":
		o.RowRange, err = grid.AsIntPair(value)
	case "sizeRange":
		o.SizeRange, err = grid.AsFloatPair(value)
	case "displayedRow":
		o.DisplayedRow, err = grid.AsInt(value)
	case "isCroppedSize":
		o.IsCroppedSize, err = grid.AsBool(value)
	default:
		return errors.New(errors.ErrCodeInvalidOption, "justified has no option %q", name)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "justified option %q", name)
	}
	s.opts = normalize(o)
	return nil
}

// ApplyGrid breaks items into rows and sizes every row to fill the
// container.
func (s *Strategy) ApplyGrid(env grid.Env, items []*grid.Item, direction grid.Direction, outline []float64) grid.Outlines {
	for _, item := range items {
		if item.IsUpdate {
			s.updateOffsets(env, item)
		}
	}
	var path []int
	if len(items) > 0 {
		if s.opts.RowRange[1] > 0 {
			path = s.rowPath(env, items)
		} else {
			path = s.Path(env, items)
		}
	}
	return s.setStyle(env, items, path, outline, direction != grid.DirectionStart)
}

// updateOffsets records the part of an item that does not scale with its
// aspect ratio, e.g. a caption under an image. Explicit attributes win; a
// mounted element with a maintained target is measured.
func (s *Strategy) updateOffsets(env grid.Env, item *grid.Item) {
	inlineOffset, hasInline := attrFloat(item, "inlineOffset")
	contentOffset, hasContent := attrFloat(item, "contentOffset")
	if inlineOffset == 0 {
		inlineOffset = item.GridData.InlineOffset
	}
	if contentOffset == 0 {
		contentOffset = item.GridData.ContentOffset
	}

	el := item.Element
	if el != nil && !hasInline && !hasContent && item.MountState == grid.Mounted {
		marker := env.AttributePrefix + "maintained-target"
		targets := el.Find(func(d *dom.Element) bool { return d.HasAttr(marker) })
		if len(targets) > 0 {
			target := targets[0]
			widthOffset := el.ClientWidth() - target.ClientWidth()
			heightOffset := el.ClientHeight() - target.ClientHeight()
			if env.Horizontal {
				inlineOffset, contentOffset = heightOffset, widthOffset
			} else {
				inlineOffset, contentOffset = widthOffset, heightOffset
			}
		}
	}
	item.GridData.InlineOffset = inlineOffset
	item.GridData.ContentOffset = contentOffset
}

func attrFloat(item *grid.Item, name string) (float64, bool) {
	v, ok := item.Attributes[name]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return 0, true
	}
	return f, true
}

// =============================================================================
// Row geometry
// =============================================================================

// ratioOf returns the item's aspect ratio without its offsets, or false for
// items without an original size.
func ratioOf(item *grid.Item) (float64, bool) {
	inline, content := item.OrgInlineSize(), item.OrgContentSize()
	if inline == 0 || content == 0 {
		return 0, false
	}
	d := content - item.GridData.ContentOffset
	if d == 0 {
		return 0, false
	}
	return (inline - item.GridData.InlineOffset) / d, true
}

// expectedRowSize solves for the row height at which items fill the
// container exactly. Items without a size count as squares.
func expectedRowSize(env grid.Env, items []*grid.Item) float64 {
	available := env.ContainerInlineSize - env.Gap*float64(len(items)-1)
	var ratioSum float64
	for _, item := range items {
		ratio, ok := ratioOf(item)
		if !ok {
			ratioSum++
			continue
		}
		ratioSum += ratio
		available += item.GridData.ContentOffset*ratio - item.GridData.InlineOffset
	}
	if ratioSum == 0 {
		return 0
	}
	return available / ratioSum
}

// expectedColumnSize is the item's inline size at the given row height.
func expectedColumnSize(item *grid.Item, rowSize float64) float64 {
	ratio, ok := ratioOf(item)
	if !ok {
		return rowSize
	}
	return ratio*(rowSize-item.GridData.ContentOffset) + item.GridData.InlineOffset
}

func expectedInlineSize(env grid.Env, items []*grid.Item, rowSize float64) float64 {
	var size float64
	for _, item := range items {
		size += expectedColumnSize(item, rowSize)
	}
	if size == 0 {
		return 0
	}
	return size + env.Gap*float64(len(items)-1)
}

// cost rates a row: zero or linear inside the size range, quadratic outside.
func (s *Strategy) cost(env grid.Env, items []*grid.Item) float64 {
	size := expectedRowSize(env, items)
	minSize, maxSize := s.opts.SizeRange[0], s.opts.SizeRange[1]

	if s.opts.IsCroppedSize {
		if minSize <= size && size <= maxSize {
			return 0
		}
		bound := maxSize
		if size < minSize {
			bound = minSize
		}
		d := expectedInlineSize(env, items, bound) - env.ContainerInlineSize
		return d * d
	}
	if !math.IsInf(maxSize, 1) {
		if size < minSize {
			return (size-minSize)*(size-minSize) + maxSize*maxSize
		}
		if size > maxSize {
			return (size-maxSize)*(size-maxSize) + maxSize*maxSize
		}
	} else if size < minSize {
		return math.Max(minSize*minSize, size*size) + overflowPenalty
	}
	return size - minSize
}

func (s *Strategy) setStyle(env grid.Env, items []*grid.Item, path []int, outline []float64, isEnd bool) grid.Outlines {
	var startPoint float64
	if len(outline) > 0 {
		startPoint = outline[0]
	}
	gap := env.Gap
	contentPos := startPoint
	displayedEnd := startPoint

	for row, group := range splitItems(items, path) {
		rowSize := expectedRowSize(env, group)
		if s.opts.IsCroppedSize {
			rowSize = math.Max(s.opts.SizeRange[0], math.Min(rowSize, s.opts.SizeRange[1]))
		}
		allGap := gap * float64(len(group)-1)
		scale := 1.0
		if s.opts.IsCroppedSize {
			if expected := expectedInlineSize(env, group, rowSize) - allGap; expected > 0 {
				scale = (env.ContainerInlineSize - allGap) / expected
			}
		}

		inlinePos := 0.0
		for _, item := range group {
			columnSize := expectedColumnSize(item, rowSize) * scale
			item.SetCSSGridRect(grid.GridRect{
				InlinePos:   inlinePos,
				ContentPos:  contentPos,
				InlineSize:  columnSize,
				ContentSize: rowSize,
			})
			inlinePos += columnSize + gap
		}
		contentPos += gap + rowSize
		if s.opts.DisplayedRow < 0 || row < s.opts.DisplayedRow {
			displayedEnd = contentPos
		}
	}

	if isEnd {
		return grid.Outlines{Start: []float64{startPoint}, End: []float64{displayedEnd}}
	}
	height := contentPos - startPoint
	for _, item := range items {
		if pos, ok := item.CSSContentPos(); ok {
			item.SetCSSContentPos(pos - height)
		}
	}
	return grid.Outlines{Start: []float64{startPoint - height}, End: []float64{startPoint}}
}

// splitItems cuts items at the path's nodes.
func splitItems(items []*grid.Item, path []int) [][]*grid.Item {
	var groups [][]*grid.Item
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		if from < 0 || to > len(items) || from >= to {
			continue
		}
		groups = append(groups, items[from:to])
	}
	return groups
}
