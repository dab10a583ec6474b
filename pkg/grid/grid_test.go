package grid_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/gridtest"
)

const stackPage = `<html><body>
<div id="grid" style="width: 300px;">
  <div style="width: 100px; height: 100px;"></div>
  <div style="width: 100px; height: 50px;"></div>
  <div style="width: 100px; height: 80px;"></div>
</div>
</body></html>`

// stack places every item in a single track.
type stack struct{}

func (stack) Name() string { return "stack" }

func (stack) ApplyGrid(env grid.Env, items []*grid.Item, direction grid.Direction, outline []float64) grid.Outlines {
	if direction == grid.DirectionStart {
		end := grid.MinOf(outline)
		pos := end
		for i := len(items) - 1; i >= 0; i-- {
			pos -= items[i].ContentSize() + env.Gap
			items[i].SetCSSInlinePos(0)
			items[i].SetCSSContentPos(pos)
		}
		return grid.Outlines{Start: []float64{pos}, End: []float64{end}}
	}
	start := grid.MaxOf(outline)
	pos := start
	for _, item := range items {
		item.SetCSSInlinePos(0)
		item.SetCSSContentPos(pos)
		pos += item.ContentSize() + env.Gap
	}
	return grid.Outlines{Start: []float64{start}, End: []float64{pos}}
}

func (stack) OutlineLength(grid.Env, []*grid.Item) int { return 1 }

func (stack) OutlineSize(env grid.Env, _ []*grid.Item) float64 { return env.ContainerInlineSize }

func (stack) Properties() map[string]grid.PropertyType { return nil }

func (stack) Property(string) (any, bool) { return nil, false }

func (stack) SetProperty(name string, _ any) error {
	return errors.New(errors.ErrCodeInvalidOption, "unknown option %q", name)
}

type fixture struct {
	doc       *dom.Document
	container *dom.Element
	sched     *gridtest.Scheduler
	grid      *grid.Grid
	completes []grid.RenderCompleteEvent
}

func newFixture(t *testing.T, page string, mutate func(*grid.Options)) *fixture {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	container, err := doc.Query("#grid")
	require.NoError(t, err)

	opts := grid.DefaultOptions()
	opts.Gap = 10
	if mutate != nil {
		mutate(&opts)
	}
	f := &fixture{doc: doc, container: container, sched: gridtest.NewScheduler()}
	f.grid, err = grid.New(container, stack{}, opts, grid.WithScheduler(f.sched))
	require.NoError(t, err)
	f.grid.RenderComplete().On(func(e grid.RenderCompleteEvent) {
		f.completes = append(f.completes, e)
	})
	return f
}

func (f *fixture) render(opts grid.RenderOptions) {
	f.grid.RenderItems(opts)
	f.sched.Flush()
}

// cssBefore returns the container's inline style before any grid touches it.
func cssBefore(t *testing.T, page string) string {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	container, err := doc.Query("#grid")
	require.NoError(t, err)
	return container.CSSText()
}

func tops(items []*grid.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Element.StyleProperty("top")
	}
	return out
}

func TestNewWithoutContainer(t *testing.T) {
	_, err := grid.New(nil, stack{}, grid.DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeContainerNotFound))
}

func TestRenderItems(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	assert.Equal(t, "relative", f.container.StyleProperty("position"))

	f.grid.RenderItems(grid.RenderOptions{})
	assert.Empty(t, f.completes, "readiness is checked asynchronously")
	assert.False(t, f.grid.Settled())

	f.sched.Flush()
	require.Len(t, f.completes, 1)
	assert.Len(t, f.completes[0].Mounted, 3)
	assert.Len(t, f.completes[0].Updated, 3)
	assert.Equal(t, grid.DirectionEnd, f.completes[0].Direction)

	items := f.grid.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"0px", "110px", "170px"}, tops(items))
	for _, item := range items {
		assert.Equal(t, "absolute", item.Element.StyleProperty("position"))
		assert.Equal(t, grid.Mounted, item.MountState)
		assert.Equal(t, grid.Updated, item.UpdateState)
	}
	assert.Equal(t, grid.Outlines{Start: []float64{0}, End: []float64{260}}, f.grid.Outlines())
	assert.Equal(t, "250px", f.container.StyleProperty("height"))
	assert.True(t, f.grid.Settled())
}

func TestRenderItemsIdempotent(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.render(grid.RenderOptions{})
	first := tops(f.grid.Items())
	outlines := f.grid.Outlines()

	f.render(grid.RenderOptions{})
	require.Len(t, f.completes, 2)
	assert.Empty(t, f.completes[1].Mounted)
	assert.Empty(t, f.completes[1].Updated)
	assert.Equal(t, first, tops(f.grid.Items()))
	assert.Equal(t, outlines, f.grid.Outlines())
}

func TestFitOutlines(t *testing.T) {
	t.Run("positive offset with fit", func(t *testing.T) {
		f := newFixture(t, stackPage, nil)
		f.grid.SetOutlines(grid.Outlines{Start: []float64{50}, End: []float64{50}})
		f.render(grid.RenderOptions{})
		assert.Equal(t, []string{"0px", "110px", "170px"}, tops(f.grid.Items()))
		assert.Equal(t, grid.Outlines{Start: []float64{0}, End: []float64{260}}, f.grid.Outlines())
	})

	t.Run("positive offset without fit", func(t *testing.T) {
		f := newFixture(t, stackPage, func(o *grid.Options) { o.UseFit = false })
		f.grid.SetOutlines(grid.Outlines{Start: []float64{50}, End: []float64{50}})
		f.render(grid.RenderOptions{})
		assert.Equal(t, []string{"50px", "160px", "220px"}, tops(f.grid.Items()))
		assert.Equal(t, "300px", f.container.StyleProperty("height"))
	})

	t.Run("negative offset is always fitted", func(t *testing.T) {
		f := newFixture(t, stackPage, func(o *grid.Options) { o.UseFit = false })
		f.render(grid.RenderOptions{Direction: grid.DirectionStart})
		assert.Equal(t, []string{"0px", "110px", "170px"}, tops(f.grid.Items()))
		assert.Equal(t, grid.Outlines{Start: []float64{0}, End: []float64{260}}, f.grid.Outlines())
		assert.Equal(t, grid.DirectionStart, f.completes[0].Direction)
	})
}

func TestDestroy(t *testing.T) {
	tests := []struct {
		name       string
		preserveUI bool
	}{
		{"restore", false},
		{"preserve", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			containerCSS := cssBefore(t, stackPage)
			f := newFixture(t, stackPage, nil)
			assert.NotEqual(t, containerCSS, f.container.CSSText())
			var before []string
			for _, child := range f.container.Children() {
				before = append(before, child.CSSText())
			}

			f.render(grid.RenderOptions{})
			f.grid.Destroy(grid.DestroyOptions{PreserveUI: tt.preserveUI})
			assert.True(t, f.grid.Destroyed())

			for i, child := range f.container.Children() {
				if tt.preserveUI {
					assert.NotEqual(t, before[i], child.CSSText())
				} else {
					assert.Equal(t, before[i], child.CSSText())
				}
			}
			if !tt.preserveUI {
				assert.Equal(t, containerCSS, f.container.CSSText())
			}

			// Nothing runs after destroy.
			f.grid.RenderItems(grid.RenderOptions{})
			f.sched.Flush()
			assert.Len(t, f.completes, 1)
		})
	}
}

func TestDestroyCancelsPendingPass(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.grid.RenderItems(grid.RenderOptions{})
	f.grid.Destroy(grid.DestroyOptions{})
	f.sched.Flush()
	assert.Empty(t, f.completes)
	for _, child := range f.container.Children() {
		assert.Empty(t, child.StyleProperty("position"))
	}
}

func TestSyncElements(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.render(grid.RenderOptions{})
	before := f.grid.Items()

	added := f.doc.CreateElement("div")
	added.SetCSSText("width: 100px; height: 40px;")
	f.container.AppendChild(added)
	f.container.Children()[0].Remove()

	f.grid.SyncElements(grid.RenderOptions{})
	f.sched.Flush()

	items := f.grid.Items()
	require.Len(t, items, 3)
	assert.Same(t, before[1], items[0])
	assert.Same(t, before[2], items[1])
	assert.Same(t, added, items[2].Element)
	assert.Equal(t, grid.Unmounted, before[0].MountState)
	assert.Equal(t, []string{"0px", "60px", "150px"}, tops(items))

	require.Len(t, f.completes, 2)
	require.Len(t, f.completes[1].Mounted, 1)
	assert.Same(t, added, f.completes[1].Mounted[0].Element)
}

func TestSyncElementsWithoutChanges(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.render(grid.RenderOptions{})
	f.grid.SyncElements(grid.RenderOptions{})
	f.sched.Flush()
	assert.Len(t, f.completes, 1)
}

func TestResizeDebounce(t *testing.T) {
	f := newFixture(t, stackPage, func(o *grid.Options) {
		o.ResizeDebounce = 100 * time.Millisecond
	})
	f.render(grid.RenderOptions{})

	for i := 0; i < 3; i++ {
		f.grid.NotifyResize()
		f.sched.Advance(50 * time.Millisecond)
	}
	assert.Len(t, f.completes, 1)
	assert.False(t, f.grid.Settled())

	f.sched.Advance(49 * time.Millisecond)
	assert.Len(t, f.completes, 1)

	f.sched.Advance(time.Millisecond)
	require.Len(t, f.completes, 2)
	assert.True(t, f.completes[1].IsResize)
	assert.Len(t, f.completes[1].Updated, 3)
	assert.True(t, f.grid.Settled())
}

func TestResizeMaxDebounce(t *testing.T) {
	f := newFixture(t, stackPage, func(o *grid.Options) {
		o.ResizeDebounce = 100 * time.Millisecond
		o.MaxResizeDebounce = 250 * time.Millisecond
	})
	f.render(grid.RenderOptions{})

	for i := 0; i < 6; i++ {
		f.grid.NotifyResize()
		f.sched.Advance(50 * time.Millisecond)
	}
	assert.Len(t, f.completes, 2)
	assert.False(t, f.grid.Settled(), "the last notification is still debounced")
}

func TestResizeIgnoredWithoutAutoResize(t *testing.T) {
	f := newFixture(t, stackPage, func(o *grid.Options) { o.AutoResize = false })
	f.render(grid.RenderOptions{})
	f.grid.NotifyResize()
	f.sched.Advance(time.Second)
	assert.Len(t, f.completes, 1)
}

func TestResizeObserverSkipsUnchangedContainer(t *testing.T) {
	f := newFixture(t, stackPage, func(o *grid.Options) { o.UseResizeObserver = true })
	f.render(grid.RenderOptions{})

	f.grid.NotifyResize()
	f.sched.Advance(time.Second)
	assert.Len(t, f.completes, 1)

	f.container.SetStyleProperty("width", "200px")
	f.grid.NotifyResize()
	f.sched.Advance(time.Second)
	require.Len(t, f.completes, 2)
	assert.Equal(t, 200.0, f.grid.ContainerInlineSize())
}

func TestChildResize(t *testing.T) {
	f := newFixture(t, stackPage, func(o *grid.Options) { o.ObserveChildren = true })
	f.render(grid.RenderOptions{})

	children := f.container.Children()
	children[1].SetStyleProperty("height", "70px")
	f.grid.NotifyChildResize(children[0], children[1])
	f.sched.Advance(time.Second)

	require.Len(t, f.completes, 2)
	require.Len(t, f.completes[1].Updated, 1)
	assert.Same(t, children[1], f.completes[1].Updated[0].Element)
	assert.Equal(t, []string{"0px", "110px", "190px"}, tops(f.grid.Items()))
}

func TestSetOption(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.render(grid.RenderOptions{})

	require.NoError(t, f.grid.SetOption("gap", 15))
	require.NoError(t, f.grid.SetOption("gap", 20))
	v, ok := f.grid.Option("gap")
	require.True(t, ok)
	assert.Equal(t, 20.0, v)

	f.sched.Flush()
	require.Len(t, f.completes, 2, "property changes collapse into one pass")
	assert.Equal(t, []string{"0px", "120px", "190px"}, tops(f.grid.Items()))

	err := f.grid.SetOption("columns", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))

	err = f.grid.SetOption("gap", "wide")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))
}

func TestSetOptionWithoutRender(t *testing.T) {
	f := newFixture(t, stackPage, func(o *grid.Options) { o.RenderOnPropertyChange = false })
	f.render(grid.RenderOptions{})
	require.NoError(t, f.grid.SetOption("gap", 20))
	f.sched.Flush()
	assert.Len(t, f.completes, 1)
}

func TestStatusRoundTrip(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.render(grid.RenderOptions{})

	data, err := json.Marshal(f.grid.Status(false))
	require.NoError(t, err)
	var status grid.Status
	require.NoError(t, json.Unmarshal(data, &status))

	g2 := newFixture(t, stackPage, nil)
	require.NoError(t, g2.grid.SetStatus(status))
	assert.Equal(t, tops(f.grid.Items()), tops(g2.grid.Items()))
	assert.Equal(t, f.grid.Outlines(), g2.grid.Outlines())
	assert.Equal(t, "250px", g2.container.StyleProperty("height"))
	assert.Empty(t, g2.completes)

	g2.sched.Flush()
	require.Len(t, g2.completes, 1)
	assert.Empty(t, g2.completes[0].Mounted)
	assert.Empty(t, g2.completes[0].Updated)
	assert.False(t, g2.completes[0].IsResize)
	assert.True(t, g2.grid.Settled())
}

func TestSetStatusEmpty(t *testing.T) {
	page := `<html><body><div id="grid" style="width: 300px;"></div></body></html>`
	f := newFixture(t, page, nil)
	status := f.grid.Status(false)
	require.Empty(t, status.Items)

	g2 := newFixture(t, page, nil)
	require.NoError(t, g2.grid.SetStatus(status))
	assert.Empty(t, g2.grid.Items())

	g2.sched.Flush()
	require.Len(t, g2.completes, 1)
	assert.Empty(t, g2.completes[0].Mounted)
	assert.Empty(t, g2.completes[0].Updated)
}

func TestStatusMinimized(t *testing.T) {
	page := `<html><body><div id="grid" style="width: 300px;">
  <div data-grid-column="2" style="width: 100px; height: 100px;"></div>
</div></body></html>`
	f := newFixture(t, page, nil)
	f.render(grid.RenderOptions{})

	full := f.grid.Status(false)
	assert.Equal(t, map[string]string{"column": "2"}, full.Items[0].Attributes)
	minimized := f.grid.Status(true)
	assert.Empty(t, minimized.Items[0].Attributes)

	g2 := newFixture(t, page, nil)
	require.NoError(t, g2.grid.SetStatus(minimized))
	assert.Equal(t, "2", g2.grid.Items()[0].Attr("column"))
}

func TestSetStatusResized(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.render(grid.RenderOptions{})
	status := f.grid.Status(false)

	narrow := `<html><body>
<div id="grid" style="width: 200px;">
  <div style="width: 100px; height: 100px;"></div>
  <div style="width: 100px; height: 50px;"></div>
  <div style="width: 100px; height: 80px;"></div>
</div>
</body></html>`
	g2 := newFixture(t, narrow, nil)
	require.NoError(t, g2.grid.SetStatus(status))
	g2.sched.Flush()
	require.Len(t, g2.completes, 1)
	assert.True(t, g2.completes[0].IsResize)
	assert.Equal(t, 200.0, g2.grid.ContainerInlineSize())
}

func TestSetStatusInvalid(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	err := f.grid.SetStatus(grid.Status{Outlines: grid.Outlines{Start: []float64{0}, End: []float64{}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidStatus))
}

func TestContentError(t *testing.T) {
	page := `<html><body><div id="grid" style="width: 300px;">
  <div style="width: 100px; height: 100px;"></div>
  <img src="missing.png">
</div></body></html>`
	f := newFixture(t, page, nil)

	var errs []grid.ContentErrorEvent
	f.grid.ContentError().On(func(e grid.ContentErrorEvent) {
		errs = append(errs, e)
		if len(errs) == 1 {
			e.Update()
		}
	})

	f.render(grid.RenderOptions{})
	assert.Empty(t, f.completes, "the image is still loading")
	assert.False(t, f.grid.Settled())

	img := f.container.Children()[1]
	img.Fail(stderrors.New("404"))
	require.Len(t, errs, 1)
	assert.Same(t, img, errs[0].Element)
	assert.Same(t, img, errs[0].Target)
	require.Len(t, f.completes, 1)

	// The requested update runs as a second batch.
	f.sched.Flush()
	assert.Len(t, f.completes, 2)
	assert.Len(t, errs, 2)
	assert.True(t, f.grid.Settled())
}

func TestMediaLoadsAfterPreReady(t *testing.T) {
	page := `<html><body><div id="grid" style="width: 300px;">
  <img src="a.png" width="100" height="60">
  <div style="width: 100px; height: 50px;"></div>
</div></body></html>`
	f := newFixture(t, page, nil)
	f.render(grid.RenderOptions{})

	require.Len(t, f.completes, 1, "declared sizes place the image before it loads")
	assert.False(t, f.grid.Settled())

	img := f.container.Children()[0]
	img.Load(200, 120)
	require.Len(t, f.completes, 2)
	require.Len(t, f.completes[1].Updated, 1)
	assert.Same(t, img, f.completes[1].Updated[0].Element)
	assert.True(t, f.grid.Settled())
}

func TestWaitSettled(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	f.grid.RenderItems(grid.RenderOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := f.grid.WaitSettled(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTimeout))

	f.sched.Flush()
	require.NoError(t, f.grid.WaitSettled(context.Background()))

	f.grid.Destroy(grid.DestroyOptions{})
	err = f.grid.WaitSettled(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeDestroyed))
}

func TestComputedOutline(t *testing.T) {
	f := newFixture(t, stackPage, nil)
	assert.Equal(t, 1, f.grid.ComputedOutlineLength())
	assert.Equal(t, 300.0, f.grid.ComputedOutlineSize())
	assert.Equal(t, "stack", f.grid.Kind())
	assert.NotEmpty(t, f.grid.ID())
}
