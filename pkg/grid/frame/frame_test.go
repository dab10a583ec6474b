package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/gridtest"
)

func items(n int) []*grid.Item {
	out := make([]*grid.Item, n)
	for i := range out {
		out[i] = grid.NewItem(nil, false, "data-grid-")
	}
	return out
}

func env(container, gap float64) grid.Env {
	return grid.Env{ContainerInlineSize: container, Gap: gap, AttributePrefix: "data-grid-"}
}

func rectOf(item *grid.Item) grid.GridRect {
	return grid.GridRect{
		InlinePos:   item.ComputedInlinePos(),
		ContentPos:  item.ComputedContentPos(),
		InlineSize:  item.ComputedInlineSize(),
		ContentSize: item.ComputedContentSize(),
	}
}

func strategy(frame [][]int, fill bool) *Strategy {
	opts := DefaultOptions()
	opts.Frame = frame
	opts.UseFrameFill = fill
	return NewStrategy(opts)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		frame [][]int
		want  Layout
	}{
		{
			name:  "blocks",
			frame: [][]int{{1, 1, 2}, {1, 1, 3}, {4, 5, 5}},
			want: Layout{
				Rects: []Rect{
					{Type: 1, InlinePos: 0, ContentPos: 0, InlineSize: 2, ContentSize: 2},
					{Type: 2, InlinePos: 2, ContentPos: 0, InlineSize: 1, ContentSize: 1},
					{Type: 3, InlinePos: 2, ContentPos: 1, InlineSize: 1, ContentSize: 1},
					{Type: 4, InlinePos: 0, ContentPos: 2, InlineSize: 1, ContentSize: 1},
					{Type: 5, InlinePos: 1, ContentPos: 2, InlineSize: 2, ContentSize: 1},
				},
				Columns: 3,
				Rows:    3,
				Outline: []int{0, 0, 0},
			},
		},
		{
			name:  "sorted by type",
			frame: [][]int{{3, 1}, {2, 1}},
			want: Layout{
				Rects: []Rect{
					{Type: 1, InlinePos: 1, ContentPos: 0, InlineSize: 1, ContentSize: 2},
					{Type: 2, InlinePos: 0, ContentPos: 1, InlineSize: 1, ContentSize: 1},
					{Type: 3, InlinePos: 0, ContentPos: 0, InlineSize: 1, ContentSize: 1},
				},
				Columns: 2,
				Rows:    2,
				Outline: []int{0, 0},
			},
		},
		{
			name:  "non rectangular region",
			frame: [][]int{{1, 1}, {1, 0}},
			want: Layout{
				Rects: []Rect{
					{Type: 1, InlinePos: 0, ContentPos: 0, InlineSize: 2, ContentSize: 1},
					{Type: 1, InlinePos: 0, ContentPos: 1, InlineSize: 1, ContentSize: 1},
				},
				Columns: 2,
				Rows:    2,
				Outline: []int{0, 0},
			},
		},
		{
			name:  "empty cells and ragged rows",
			frame: [][]int{{0, 1}, {2}, {0, 0, 0}},
			want: Layout{
				Rects: []Rect{
					{Type: 1, InlinePos: 1, ContentPos: 0, InlineSize: 1, ContentSize: 1},
					{Type: 2, InlinePos: 0, ContentPos: 1, InlineSize: 1, ContentSize: 1},
				},
				Columns: 3,
				Rows:    3,
				Outline: []int{1, 0, 3},
			},
		},
		{
			name:  "empty",
			frame: nil,
			want:  Layout{Outline: []int{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Parse(tt.frame)); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [][]int
		wantErr bool
	}{
		{"pipes", "1 1 2 | 3 0 2", [][]int{{1, 1, 2}, {3, 0, 2}}, false},
		{"lines", "1 1 2\n3 . 2\n", [][]int{{1, 1, 2}, {3, 0, 2}}, false},
		{"semicolons and blank rows", "1 2;;\n\n3 4", [][]int{{1, 2}, {3, 4}}, false},
		{"comments", "# hero\n1 1\n2 3 # tail", [][]int{{1, 1}, {2, 3}}, false},
		{"multi digit", "10 _ 12", [][]int{{10, 0, 12}}, false},
		{"letters", "1 a", nil, true},
		{"only separators", "| |", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTemplate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeInvalidFrame))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTemplate(t *testing.T) {
	assert.Equal(t, " 1  1  2\n 3  . 10", FormatTemplate([][]int{{1, 1, 2}, {3, 0, 10}}))

	frame, err := ParseTemplate(FormatTemplate([][]int{{1, 0}, {2, 2}}))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}, {2, 2}}, frame)
}

func TestApplyGrid(t *testing.T) {
	// 3 columns over 320px with gap 10: cells are 100px, steps 110px.
	s := strategy([][]int{{1, 1, 2}, {1, 1, 3}}, true)
	its := items(4)
	out := s.ApplyGrid(env(320, 10), its, grid.DirectionEnd, []float64{0, 0, 0})

	want := []grid.GridRect{
		{InlinePos: 0, ContentPos: 0, InlineSize: 210, ContentSize: 210},
		{InlinePos: 220, ContentPos: 0, InlineSize: 100, ContentSize: 100},
		{InlinePos: 220, ContentPos: 110, InlineSize: 100, ContentSize: 100},
		{InlinePos: 0, ContentPos: 220, InlineSize: 210, ContentSize: 210},
	}
	for i, item := range its {
		assert.Equal(t, want[i], rectOf(item), "item %d", i)
	}
	assert.Equal(t, grid.Outlines{Start: []float64{0, 0, 0}, End: []float64{440, 440, 220}}, out)
}

func TestFrameFill(t *testing.T) {
	// Column 0 starts one row down, so later pages can rise into it.
	frame := [][]int{{0, 1}, {2, 0}}
	tests := []struct {
		name string
		fill bool
		want [][2]float64
		end  []float64
	}{
		{"fill", true, [][2]float64{{110, 0}, {0, 110}, {110, 110}, {0, 220}}, []float64{330, 220}},
		{"no fill", false, [][2]float64{{110, 0}, {0, 110}, {110, 220}, {0, 330}}, []float64{440, 330}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			its := items(4)
			out := strategy(frame, tt.fill).ApplyGrid(env(210, 10), its, grid.DirectionEnd, []float64{0, 0})
			for i, item := range its {
				assert.Equal(t, tt.want[i][0], item.ComputedInlinePos(), "item %d", i)
				assert.Equal(t, tt.want[i][1], item.ComputedContentPos(), "item %d", i)
			}
			assert.Equal(t, tt.end, out.End)
			assert.Equal(t, []float64{0, 0}, out.Start)
		})
	}
}

func TestUnusedColumnOutline(t *testing.T) {
	its := items(1)
	out := strategy([][]int{{1, 0}}, false).ApplyGrid(env(210, 10), its, grid.DirectionEnd, []float64{50, 50})

	assert.Equal(t, 50.0, its[0].ComputedContentPos())
	assert.Equal(t, grid.Outlines{Start: []float64{50, 50}, End: []float64{160, 50}}, out)
}

func TestFrameTiling(t *testing.T) {
	frames := [][][]int{
		{{1, 1, 2}, {1, 1, 3}},
		{{0, 1}, {2, 0}},
		{{1, 2, 2}, {0, 3, 0}, {4, 4, 0}},
	}
	for _, frame := range frames {
		s := strategy(frame, false)
		rects := len(s.Layout().Rects)
		its := items(rects*2 + 1)
		s.ApplyGrid(env(300, 5), its, grid.DirectionEnd, nil)

		var firstEnd float64
		for _, item := range its[:rects] {
			firstEnd = max(firstEnd, item.ComputedContentPos()+item.ComputedContentSize())
		}
		assert.GreaterOrEqual(t, its[rects].ComputedContentPos(), firstEnd, "frame %v", frame)
	}
}

func TestStartDirection(t *testing.T) {
	its := items(2)
	out := strategy([][]int{{1}}, true).ApplyGrid(env(100, 0), its, grid.DirectionStart, []float64{500})

	assert.Equal(t, 300.0, its[0].ComputedContentPos())
	assert.Equal(t, 400.0, its[1].ComputedContentPos())
	assert.Equal(t, grid.Outlines{Start: []float64{300}, End: []float64{500}}, out)
}

func TestRectSize(t *testing.T) {
	s := strategy([][]int{{1, 2}}, true)
	require.NoError(t, s.SetProperty("rectSize", RectSize{InlineSize: 50, ContentSize: 30}))

	its := items(2)
	s.ApplyGrid(env(1000, 10), its, grid.DirectionEnd, nil)
	assert.Equal(t, grid.GridRect{InlinePos: 60, ContentPos: 0, InlineSize: 50, ContentSize: 30}, rectOf(its[1]))

	require.NoError(t, s.SetProperty("rectSize", 80))
	assert.Equal(t, RectSize{InlineSize: 80, ContentSize: 80}, s.RectSize(env(1000, 10)))

	require.NoError(t, s.SetProperty("rectSize", RectSize{InlineSize: 40}))
	assert.Equal(t, RectSize{InlineSize: 40, ContentSize: 40}, s.RectSize(env(1000, 10)))
}

func TestEmptyFrame(t *testing.T) {
	its := items(2)
	out := strategy(nil, true).ApplyGrid(env(300, 0), its, grid.DirectionEnd, []float64{20})

	assert.Equal(t, grid.Outlines{Start: []float64{20}, End: []float64{20}}, out)
	assert.True(t, its[0].CSSRect.Empty())
}

func TestSetProperty(t *testing.T) {
	s := strategy(nil, true)

	require.NoError(t, s.SetProperty("frame", "1 2 | 3 3"))
	assert.Equal(t, [][]int{{1, 2}, {3, 3}}, s.Options().Frame)
	assert.Len(t, s.Layout().Rects, 3)

	require.NoError(t, s.SetProperty("frame", []any{[]any{1, 1}, []any{int64(2), 3.0}}))
	assert.Equal(t, [][]int{{1, 1}, {2, 3}}, s.Options().Frame)

	require.NoError(t, s.SetProperty("useFrameFill", false))
	v, ok := s.Property("useFrameFill")
	assert.True(t, ok)
	assert.Equal(t, false, v)

	err := s.SetProperty("frame", "1 x")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))
	assert.Equal(t, [][]int{{1, 1}, {2, 3}}, s.Options().Frame)

	err = s.SetProperty("columns", 3)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))
}

func TestGrid(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><div id="grid" style="width: 320px;">
  <div style="width: 100px; height: 100px;"></div>
  <div style="width: 100px; height: 100px;"></div>
  <div style="width: 100px; height: 100px;"></div>
</div></body></html>`)
	require.NoError(t, err)
	container, err := doc.Query("#grid")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Gap = 10
	opts.Frame = [][]int{{1, 1, 2}, {1, 1, 3}}
	sched := gridtest.NewScheduler()
	g, err := New(container, opts, grid.WithScheduler(sched))
	require.NoError(t, err)

	g.RenderItems(grid.RenderOptions{})
	sched.Flush()
	require.True(t, g.Settled())

	children := container.Children()
	assert.Equal(t, "210px", children[0].StyleProperty("width"))
	assert.Equal(t, "220px", children[2].StyleProperty("left"))
	assert.Equal(t, "110px", children[2].StyleProperty("top"))
	assert.Equal(t, "210px", container.StyleProperty("height"))

	require.NoError(t, g.SetTemplate("1 2 3"))
	sched.Flush()
	assert.Equal(t, [][]int{{1, 2, 3}}, g.Frame())
	assert.Len(t, g.Layout().Rects, 3)
	assert.Equal(t, "0px", children[2].StyleProperty("top"))
	assert.Equal(t, "100px", container.StyleProperty("height"))
}
