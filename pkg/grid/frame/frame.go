// Package frame places items into the rects of a repeating template.
//
// A frame is a matrix of small integers. Cells sharing a non-zero value form
// one rect; zero cells stay empty. Items fill the rects in ascending value
// order, and every repetition of the template is laid out as one page below
// the previous one.
package frame

import (
	"math"
	"slices"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Name is the strategy kind.
const Name = "frame"

// RectSize fixes the size of one frame cell. Zero fields are derived.
type RectSize struct {
	InlineSize  float64 `toml:"inline_size" json:"inlineSize"`
	ContentSize float64 `toml:"content_size" json:"contentSize"`
}

// Options configures a frame grid.
type Options struct {
	grid.Options

	// Frame is the template, one slice per row.
	Frame [][]int `toml:"frame" json:"frame"`
	// UseFrameFill pulls every page up into the notches left by empty cells
	// of the previous page.
	UseFrameFill bool `toml:"use_frame_fill" json:"useFrameFill"`
	// RectSize overrides the cell size. By default cells are as wide as the
	// container divided by the frame's column count, and square.
	RectSize RectSize `toml:"rect_size" json:"rectSize"`
}

// DefaultOptions returns the frame defaults.
func DefaultOptions() Options {
	return Options{
		Options:      grid.DefaultOptions(),
		UseFrameFill: true,
	}
}

var properties = map[string]grid.PropertyType{
	"frame":        grid.RenderProperty,
	"useFrameFill": grid.RenderProperty,
	"rectSize":     grid.RenderProperty,
}

// Rect is one rect of a parsed frame, in cell units.
type Rect struct {
	Type        int `json:"type"`
	InlinePos   int `json:"inlinePos"`
	ContentPos  int `json:"contentPos"`
	InlineSize  int `json:"inlineSize"`
	ContentSize int `json:"contentSize"`
}

// Layout is a parsed frame.
type Layout struct {
	Rects []Rect `json:"rects"`
	// Columns and Rows are the frame's extent in cells.
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
	// Outline holds, per column, the first occupied row. Empty columns
	// report Rows.
	Outline []int `json:"outline"`
}

// Parse splits a frame into rects. Each rect grows right from its top-left
// cell while the value repeats, then down while the whole run repeats.
// Shorter rows are padded with empty cells.
func Parse(frame [][]int) Layout {
	var columns int
	for _, row := range frame {
		columns = max(columns, len(row))
	}
	rows := len(frame)
	cell := func(x, y int) int {
		if y >= rows || x >= len(frame[y]) || frame[y][x] < 0 {
			return 0
		}
		return frame[y][x]
	}

	passed := make([][]bool, rows)
	for y := range passed {
		passed[y] = make([]bool, columns)
	}

	var rects []Rect
	for y := 0; y < rows; y++ {
		for x := 0; x < columns; x++ {
			typ := cell(x, y)
			if typ == 0 || passed[y][x] {
				continue
			}
			width := 1
			for x+width < columns && cell(x+width, y) == typ && !passed[y][x+width] {
				width++
			}
			height := 1
		grow:
			for y+height < rows {
				for dx := 0; dx < width; dx++ {
					if cell(x+dx, y+height) != typ || passed[y+height][x+dx] {
						break grow
					}
				}
				height++
			}
			for dy := 0; dy < height; dy++ {
				for dx := 0; dx < width; dx++ {
					passed[y+dy][x+dx] = true
				}
			}
			rects = append(rects, Rect{
				Type:        typ,
				InlinePos:   x,
				ContentPos:  y,
				InlineSize:  width,
				ContentSize: height,
			})
		}
	}
	slices.SortStableFunc(rects, func(a, b Rect) int { return a.Type - b.Type })

	outline := make([]int, columns)
	for x := range outline {
		outline[x] = rows
		for y := 0; y < rows; y++ {
			if cell(x, y) != 0 {
				outline[x] = y
				break
			}
		}
	}
	return Layout{Rects: rects, Columns: columns, Rows: rows, Outline: outline}
}

// Strategy implements grid.Strategy for frame layouts.
type Strategy struct {
	opts   Options
	layout Layout
}

var _ grid.Strategy = (*Strategy)(nil)

// NewStrategy creates a frame strategy.
func NewStrategy(opts Options) *Strategy {
	s := &Strategy{}
	s.setOptions(opts)
	return s
}

func (s *Strategy) setOptions(o Options) {
	if o.RectSize.InlineSize < 0 || math.IsNaN(o.RectSize.InlineSize) {
		o.RectSize.InlineSize = 0
	}
	if o.RectSize.ContentSize < 0 || math.IsNaN(o.RectSize.ContentSize) {
		o.RectSize.ContentSize = 0
	}
	s.opts = o
	s.layout = Parse(o.Frame)
}

// Options returns the strategy options.
func (s *Strategy) Options() Options { return s.opts }

// Layout returns the parsed frame.
func (s *Strategy) Layout() Layout { return s.layout }

func (s *Strategy) Name() string { return Name }

func (s *Strategy) OutlineLength(grid.Env, []*grid.Item) int { return max(s.layout.Columns, 1) }

func (s *Strategy) OutlineSize(env grid.Env, _ []*grid.Item) float64 {
	return s.RectSize(env).InlineSize
}

func (s *Strategy) Properties() map[string]grid.PropertyType { return properties }

func (s *Strategy) Property(name string) (any, bool) {
	switch name {
	case "frame":
		return s.opts.Frame, true
	case "useFrameFill":
		return s.opts.UseFrameFill, true
	case "rectSize":
		return s.opts.RectSize, true
	}
	return nil, false
}

func (s *Strategy) SetProperty(name string, value any) error {
	o := s.opts
	var err error
	switch name {
	case "frame":
		o.Frame, err = asFrame(value)
	case "useFrameFill":
		o.UseFrameFill, err = grid.AsBool(value)
	case "rectSize":
		o.RectSize, err = asRectSize(value)
	default:
		return errors.New(errors.ErrCodeInvalidOption, "frame has no option %q", name)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "frame option %q", name)
	}
	s.setOptions(o)
	return nil
}

func asFrame(v any) ([][]int, error) {
	switch v := v.(type) {
	case [][]int:
		return v, nil
	case string:
		return ParseTemplate(v)
	case []any:
		frame := make([][]int, len(v))
		for y, row := range v {
			cells, ok := row.([]any)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidFrame, "row %d is %T, not a list", y, row)
			}
			frame[y] = make([]int, len(cells))
			for x, c := range cells {
				n, err := grid.AsInt(c)
				if err != nil {
					return nil, err
				}
				frame[y][x] = n
			}
		}
		return frame, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFrame, "cannot use %T as a frame", v)
}

func asRectSize(v any) (RectSize, error) {
	switch v := v.(type) {
	case RectSize:
		return v, nil
	case map[string]any:
		var r RectSize
		for key, value := range v {
			f, err := grid.AsFloat(value)
			if err != nil {
				return RectSize{}, err
			}
			switch key {
			case "inlineSize", "inline_size":
				r.InlineSize = f
			case "contentSize", "content_size":
				r.ContentSize = f
			}
		}
		return r, nil
	}
	pair, err := grid.AsFloatPair(v)
	if err != nil {
		return RectSize{}, err
	}
	return RectSize{InlineSize: pair[0], ContentSize: pair[1]}, nil
}

// RectSize returns the size of one frame cell for env.
func (s *Strategy) RectSize(env grid.Env) RectSize {
	size := s.opts.RectSize
	if size.InlineSize == 0 && s.layout.Columns > 0 {
		size.InlineSize = (env.ContainerInlineSize+env.Gap)/float64(s.layout.Columns) - env.Gap
	}
	if size.ContentSize == 0 {
		size.ContentSize = size.InlineSize
	}
	return size
}

// ApplyGrid assigns items to frame rects page by page.
func (s *Strategy) ApplyGrid(env grid.Env, items []*grid.Item, direction grid.Direction, outline []float64) grid.Outlines {
	layout := s.layout
	if len(items) == 0 || len(layout.Rects) == 0 {
		return grid.Outlines{Start: slices.Clone(outline), End: slices.Clone(outline)}
	}
	isEnd := direction != grid.DirectionStart
	gap := env.Gap
	rect := s.RectSize(env)
	inlineStep := rect.InlineSize + gap
	contentStep := rect.ContentSize + gap

	end := make([]float64, layout.Columns)
	for i := range end {
		end[i] = math.Inf(-1)
	}

	var pageStart float64
	if isEnd {
		pageStart = s.pageStart(outline, contentStep)
	}
	firstStart := pageStart

	for first := 0; first < len(items); first += len(layout.Rects) {
		if first > 0 {
			pageStart = s.pageStart(end, contentStep)
		}
		for i, r := range layout.Rects {
			if first+i >= len(items) {
				break
			}
			contentPos := pageStart + float64(r.ContentPos)*contentStep
			contentSize := float64(r.ContentSize)*contentStep - gap
			items[first+i].SetCSSGridRect(grid.GridRect{
				InlinePos:   float64(r.InlinePos) * inlineStep,
				ContentPos:  contentPos,
				InlineSize:  float64(r.InlineSize)*inlineStep - gap,
				ContentSize: contentSize,
			})
			for x := r.InlinePos; x < r.InlinePos+r.InlineSize; x++ {
				end[x] = math.Max(end[x], contentPos+contentSize+gap)
			}
		}
	}
	// The start outline is flat at the first page; unused columns end there too.
	for i := range end {
		if math.IsInf(end[i], 0) {
			end[i] = firstStart
		}
	}

	if isEnd {
		return grid.Outlines{Start: flat(firstStart, layout.Columns), End: end}
	}

	// Laid out from zero; move everything above the previous outline.
	var shift float64
	if len(outline) > 0 {
		shift = grid.MinOf(outline)
	}
	shift -= grid.MaxOf(end)
	for _, item := range items {
		if pos, ok := item.CSSContentPos(); ok {
			item.SetCSSContentPos(pos + shift)
		}
	}
	for i := range end {
		end[i] += shift
	}
	return grid.Outlines{Start: flat(firstStart+shift, layout.Columns), End: end}
}

// pageStart is the position of the next page below prev. With frame fill
// the page may rise as long as no column's first occupied cell overlaps the
// content above it.
func (s *Strategy) pageStart(prev []float64, contentStep float64) float64 {
	if len(prev) == 0 {
		return 0
	}
	if !s.opts.UseFrameFill || len(prev) != s.layout.Columns {
		return grid.MaxOf(prev)
	}
	point := math.Inf(-1)
	for i, row := range s.layout.Outline {
		if math.IsInf(prev[i], -1) {
			continue
		}
		point = math.Max(point, prev[i]-float64(row)*contentStep)
	}
	if math.IsInf(point, -1) {
		return 0
	}
	return point
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
