package grid

import (
	"context"
	"io"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/event"
	"github.com/matzehuels/tilegrid/pkg/imready"
	"github.com/matzehuels/tilegrid/pkg/listdiff"
	"github.com/matzehuels/tilegrid/pkg/observability"
)

// Grid lays out the children of one container with a Strategy.
type Grid struct {
	mu sync.Mutex

	id        string
	strategy  Strategy
	options   Options
	container *dom.Element
	logger    *log.Logger
	scheduler Scheduler

	containerManager *ContainerManager
	itemRenderer     *ItemRenderer
	watcher          *ResizeWatcher

	items    []*Item
	outlines Outlines

	renderTimer Timer
	renderSeq   uint64
	checker     *imready.Checker
	batch       uint64
	checking    bool
	pendingDone int
	destroyed   bool

	queued  []func()
	waiters []chan struct{}

	renderComplete event.Topic[RenderCompleteEvent]
	contentError   event.Topic[ContentErrorEvent]
}

// New binds a grid to container. Nothing is measured or placed until
// RenderItems is called.
func New(container *dom.Element, strategy Strategy, opts Options, options ...Option) (*Grid, error) {
	if container == nil {
		return nil, errors.New(errors.ErrCodeContainerNotFound, "container element is nil")
	}
	if strategy == nil {
		return nil, errors.New(errors.ErrCodeInvalidKind, "no placement strategy")
	}
	opts = opts.normalize()

	g := &Grid{
		id:        uuid.NewString(),
		strategy:  strategy,
		options:   opts,
		container: container,
		logger:    log.New(io.Discard),
		scheduler: SystemScheduler{},
		outlines:  Outlines{Start: []float64{}, End: []float64{}},
	}
	for _, opt := range options {
		opt(g)
	}
	g.logger = g.logger.With("grid", g.id, "kind", strategy.Name())

	g.containerManager = NewContainerManager(container, opts.Horizontal)
	g.containerManager.Resize()
	g.itemRenderer = NewItemRenderer(opts)
	g.itemRenderer.SetContainerInlineSize(g.containerManager.InlineSize())
	g.watcher = NewResizeWatcher(g.scheduler, opts.ResizeDebounce, opts.MaxResizeDebounce, g.onResize)

	g.logger.Debug("grid created", "container", container.String(), "inlineSize", g.containerManager.InlineSize())
	return g, nil
}

// =============================================================================
// Accessors
// =============================================================================

// ID returns the instance ID.
func (g *Grid) ID() string { return g.id }

// Kind returns the strategy name.
func (g *Grid) Kind() string { return g.strategy.Name() }

// Strategy returns the placement strategy.
func (g *Grid) Strategy() Strategy { return g.strategy }

// ContainerElement returns the bound container.
func (g *Grid) ContainerElement() *dom.Element { return g.container }

// Children returns the container's current element children.
func (g *Grid) Children() []*dom.Element { return g.container.Children() }

// RenderComplete returns the topic notified after every placement pass.
func (g *Grid) RenderComplete() *event.Topic[RenderCompleteEvent] { return &g.renderComplete }

// ContentError returns the topic notified for every failed content element.
func (g *Grid) ContentError() *event.Topic[ContentErrorEvent] { return &g.contentError }

// Items returns the tracked items in DOM order at the last reconciliation.
func (g *Grid) Items() []*Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.items)
}

// SetItems replaces the tracked items.
func (g *Grid) SetItems(items []*Item) {
	g.do(func() {
		g.items = slices.Clone(items)
	})
}

// ContainerInlineSize returns the container size across tracks.
func (g *Grid) ContainerInlineSize() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.containerManager.InlineSize()
}

// Outlines returns a copy of the current outlines.
func (g *Grid) Outlines() Outlines {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outlines.Clone()
}

// SetOutlines replaces the current outlines.
func (g *Grid) SetOutlines(o Outlines) {
	g.do(func() {
		g.outlines = o.Clone()
	})
}

// ComputedOutlineLength is the number of tracks the strategy would use now.
func (g *Grid) ComputedOutlineLength() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.strategy.OutlineLength(g.env(), g.items)
}

// ComputedOutlineSize is the inline size of one track.
func (g *Grid) ComputedOutlineSize() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.strategy.OutlineSize(g.env(), g.items)
}

// Inspect calls fn with the current environment and items under the grid's
// lock. fn must not call back into the grid.
func (g *Grid) Inspect(fn func(env Env, items []*Item)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.env(), g.items)
}

// Options returns the current base options.
func (g *Grid) Options() Options {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.options
}

// Option returns a base or strategy option by name.
func (g *Grid) Option(name string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.options.get(name); ok {
		return v, true
	}
	return g.strategy.Property(name)
}

// SetOption updates a base or strategy option. Changing a render property
// schedules a pass when RenderOnPropertyChange is set; rapid changes collapse
// into one pass.
func (g *Grid) SetOption(name string, value any) error {
	var err error
	g.do(func() {
		if g.destroyed {
			err = errors.New(errors.ErrCodeDestroyed, "grid %s is destroyed", g.id)
			return
		}
		var pt PropertyType
		if t, ok := baseProperties[name]; ok {
			if err = g.options.set(name, value); err != nil {
				return
			}
			g.itemRenderer.SetOptions(g.options)
			pt = t
		} else if t, ok := g.strategy.Properties()[name]; ok {
			if err = g.strategy.SetProperty(name, value); err != nil {
				return
			}
			pt = t
		} else {
			err = errors.New(errors.ErrCodeInvalidOption, "%s has no option %q", g.strategy.Name(), name)
			return
		}
		g.logger.Debug("option changed", "name", name, "value", value)
		if pt == RenderProperty && g.options.RenderOnPropertyChange {
			g.scheduleRender()
		}
	})
	return err
}

// Destroyed reports whether Destroy was called.
func (g *Grid) Destroyed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.destroyed
}

// Settled reports whether no pass, readiness check, resize or scheduled
// event is outstanding and every mounted item is up to date.
func (g *Grid) Settled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settledLocked()
}

func (g *Grid) settledLocked() bool {
	if g.destroyed || g.renderTimer != nil || g.checking || g.pendingDone > 0 || g.watcher.Pending() {
		return false
	}
	for _, item := range g.items {
		if item.Element != nil && item.UpdateState != Updated {
			return false
		}
	}
	return true
}

// WaitSettled blocks until the grid is settled or ctx is done.
func (g *Grid) WaitSettled(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.destroyed {
			g.mu.Unlock()
			return errors.New(errors.ErrCodeDestroyed, "grid %s is destroyed", g.id)
		}
		if g.settledLocked() {
			g.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		g.waiters = append(g.waiters, ch)
		g.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "grid %s did not settle", g.id)
		}
	}
}

// =============================================================================
// Render life cycle
// =============================================================================

// SyncElements reconciles the container's children with the tracked items
// and renders if anything was added, removed or moved.
func (g *Grid) SyncElements(opts RenderOptions) {
	g.do(func() {
		if !g.destroyed {
			g.syncElements(opts)
		}
	})
}

// UpdateItems marks items (all when nil) for re-measurement and runs a
// readiness-gated pass.
func (g *Grid) UpdateItems(items []*Item, opts RenderOptions) {
	g.do(func() {
		if g.destroyed {
			return
		}
		if items == nil {
			items = g.items
		}
		g.updateItems(items, opts)
	})
}

// RenderItems runs a pass. With no tracked items but existing children it
// reconciles first; with UseResize it re-measures everything.
func (g *Grid) RenderItems(opts RenderOptions) {
	g.do(func() {
		if !g.destroyed {
			g.renderItems(opts)
		}
	})
}

// NotifyResize reports a viewport or container resize. It is debounced and
// ignored unless AutoResize is set. With UseResizeObserver, only real changes
// of the container's size count.
func (g *Grid) NotifyResize() {
	g.mu.Lock()
	skip := g.destroyed || !g.options.AutoResize
	if !skip && g.options.UseResizeObserver {
		r := g.containerManager.Rect()
		skip = g.container.ClientWidth() == r.Width && g.container.ClientHeight() == r.Height
	}
	g.mu.Unlock()

	if !skip {
		g.watcher.ContainerResized()
	}
}

// NotifyChildResize reports resized item elements. It is ignored unless
// ObserveChildren is set.
func (g *Grid) NotifyChildResize(elements ...*dom.Element) {
	g.mu.Lock()
	skip := g.destroyed || !g.options.AutoResize || !g.options.ObserveChildren
	g.mu.Unlock()

	if !skip {
		g.watcher.ChildrenResized(elements)
	}
}

// Destroy detaches the grid. Unless UI is preserved, the container and every
// item element get their original inline style back.
func (g *Grid) Destroy(opts DestroyOptions) {
	g.do(func() {
		if g.destroyed {
			return
		}
		preserveUI := opts.PreserveUI || g.options.PreserveUIOnDestroy
		g.destroyed = true
		g.clearRenderTimer()
		g.watcher.Destroy()
		if g.checker != nil {
			g.checker.Destroy()
			g.checker = nil
		}
		g.checking = false

		g.containerManager.Destroy(preserveUI)
		if !preserveUI {
			for _, item := range g.items {
				if item.Element != nil {
					item.Element.SetCSSText(item.OrgCSSText)
				}
			}
		}
		g.logger.Debug("grid destroyed", "preserveUI", preserveUI)
	})
	g.renderComplete.Clear()
	g.contentError.Clear()
}

// do runs fn under the lock, then dispatches the events fn queued and wakes
// waiters once the grid is settled.
func (g *Grid) do(fn func()) {
	g.mu.Lock()
	fn()
	queued := g.queued
	g.queued = nil
	var waiters []chan struct{}
	if g.destroyed || g.settledLocked() {
		waiters = g.waiters
		g.waiters = nil
	}
	g.mu.Unlock()

	for _, f := range queued {
		f()
	}
	for _, ch := range waiters {
		close(ch)
	}
}

// emit queues fn to run after the lock is released. Callers hold g.mu.
func (g *Grid) emit(fn func()) {
	g.queued = append(g.queued, fn)
}

func (g *Grid) env() Env {
	return Env{
		ContainerInlineSize:  g.containerManager.InlineSize(),
		ContainerContentSize: g.containerManager.ContentSize(),
		Gap:                  g.options.Gap,
		Horizontal:           g.options.Horizontal,
		AttributePrefix:      g.options.AttributePrefix,
		OutlineLength:        g.options.OutlineLength,
		OutlineSize:          g.options.OutlineSize,
	}
}

func (g *Grid) scheduleRender() {
	g.clearRenderTimer()
	seq := g.renderSeq
	g.renderTimer = g.scheduler.AfterFunc(0, func() {
		g.do(func() {
			if g.destroyed || seq != g.renderSeq {
				return
			}
			g.renderTimer = nil
			g.renderItems(RenderOptions{})
		})
	})
}

func (g *Grid) clearRenderTimer() {
	g.renderSeq++
	if g.renderTimer != nil {
		g.renderTimer.Stop()
		g.renderTimer = nil
	}
}

func (g *Grid) renderItems(opts RenderOptions) {
	g.clearRenderTimer()
	if opts.UseResize {
		g.containerManager.Resize()
		g.itemRenderer.SetContainerInlineSize(g.containerManager.InlineSize())
		g.itemRenderer.Resize()
	}
	switch {
	case len(g.items) == 0 && len(g.container.Children()) > 0:
		g.syncElements(opts)
	case opts.UseResize:
		g.updateItems(g.items, opts)
	default:
		g.checkReady(opts)
	}
}

func (g *Grid) syncElements(opts RenderOptions) {
	children := g.container.Children()
	prev := make([]*dom.Element, len(g.items))
	for i, item := range g.items {
		prev[i] = item.Element
	}
	diff := listdiff.Diff(prev, children)

	next := make([]*Item, 0, len(children))
	for _, pair := range diff.Maintained {
		next = append(next, g.items[pair[0]])
	}
	for _, index := range diff.Added {
		item := NewItem(children[index], g.options.Horizontal, g.options.AttributePrefix)
		next = slices.Insert(next, index, item)
	}
	for _, index := range diff.Removed {
		g.items[index].MountState = Unmounted
	}
	g.items = next

	g.logger.Debug("synced elements",
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"changed", len(diff.Changed))
	if diff.HasChanges() {
		g.renderItems(opts)
	}
}

func (g *Grid) updateItems(items []*Item, opts RenderOptions) {
	for _, item := range items {
		if opts.UseOrgResize {
			if item.Element != nil {
				item.Element.SetCSSText(item.OrgCSSText)
			}
			item.IsFirstUpdate = false
		}
		item.UpdateState = NeedUpdate
	}
	g.checkReady(opts)
}

// checkReady starts a readiness batch for the items that need measuring. Any
// previous batch is destroyed, and callbacks tagged with an older batch
// number are ignored.
func (g *Grid) checkReady(opts RenderOptions) {
	var updated, mounted []*Item
	for _, item := range g.items {
		if item.Element == nil || item.UpdateState == Updated {
			continue
		}
		updated = append(updated, item)
		if item.MountState != Mounted {
			mounted = append(mounted, item)
		}
	}
	elements := make([]*dom.Element, len(updated))
	for i, item := range updated {
		elements[i] = item.Element
	}

	if g.checker != nil {
		g.checker.Destroy()
	}
	g.batch++
	batch := g.batch
	g.checking = true

	var moreUpdated []*Item
	checker := imready.New(g.options.AttributePrefix, defer0(g.scheduler))
	checker.
		OnPreReadyElement(func(index int) {
			g.inBatch(batch, func() {
				updated[index].UpdateState = WaitLoading
			})
		}).
		OnPreReady(func() {
			g.inBatch(batch, func() {
				for _, item := range updated {
					_, hasWidth := item.CSSRect.Get("width")
					_, hasHeight := item.CSSRect.Get("height")
					if !item.OrgRect.HasSize() && (hasWidth || hasHeight) {
						item.Element.SetStyle(map[string]string{"width": "", "height": ""})
					}
				}
				g.itemRenderer.UpdateItems(updated)
				g.readyItems(mounted, updated, opts)
			})
		}).
		OnReadyElement(func(e imready.ReadyElementEvent) {
			g.inBatch(batch, func() {
				item := updated[e.Index]
				item.UpdateState = NeedUpdate
				if !e.IsPreReadyOver {
					return
				}
				if item.IsRestoreOrgCSSText && item.Element != nil {
					item.Element.SetCSSText(item.OrgCSSText)
				}
				g.itemRenderer.UpdateItems([]*Item{item})
				g.readyItems(nil, []*Item{item}, opts)
			})
		}).
		OnError(func(e imready.ErrorEvent) {
			g.inBatch(batch, func() {
				item := updated[e.Index]
				g.logger.Warn("content error", "element", e.Element.String(), "target", e.Target.String(), "err", e.Err)
				observability.Grid().OnContentError(g.id, g.strategy.Name(), e.Index)
				ev := ContentErrorEvent{
					Item:    item,
					Element: e.Element,
					Target:  e.Target,
					Err:     e.Err,
					Update: func() {
						g.mu.Lock()
						defer g.mu.Unlock()
						moreUpdated = append(moreUpdated, item)
					},
				}
				g.emit(func() { g.contentError.Emit(ev) })
			})
		}).
		OnReady(func() {
			g.inBatch(batch, func() {
				g.checking = false
				if len(moreUpdated) > 0 {
					g.updateItems(moreUpdated, RenderOptions{})
				}
			})
		})
	g.checker = checker
	checker.Check(elements)
}

// inBatch runs fn under the lock unless the batch was superseded.
func (g *Grid) inBatch(batch uint64, fn func()) {
	g.do(func() {
		if g.destroyed || batch != g.batch {
			return
		}
		fn()
	})
}

// readyItems places every item, commits styles and emits renderComplete.
func (g *Grid) readyItems(mounted, updated []*Item, opts RenderOptions) {
	start := time.Now()
	direction := opts.Direction
	if direction == "" {
		direction = g.options.DefaultDirection
	}
	prevOutline := opts.Outline
	if prevOutline == nil {
		if direction == DirectionEnd {
			prevOutline = g.outlines.Start
		} else {
			prevOutline = g.outlines.End
		}
	}
	prevOutline = cloneFloats(prevOutline)
	kind := g.strategy.Name()
	observability.Grid().OnPassStart(g.id, kind, len(g.items))

	next := Outlines{Start: cloneFloats(prevOutline), End: cloneFloats(prevOutline)}
	for _, item := range updated {
		item.IsUpdate = true
	}
	if len(g.items) > 0 {
		next = g.strategy.ApplyGrid(g.env(), g.items, direction, prevOutline)
	}
	for _, item := range updated {
		item.IsUpdate = false
	}

	g.outlines = next.Clone()
	g.fitOutlines(g.options.UseFit)
	g.itemRenderer.RenderItems(g.items)
	g.refreshContainerContentSize()

	elapsed := time.Since(start)
	g.logger.Debug("render pass",
		"items", len(g.items),
		"mounted", len(mounted),
		"updated", len(updated),
		"direction", direction,
		"resize", opts.UseResize,
		"duration", elapsed)
	observability.Grid().OnPassComplete(g.id, kind, len(mounted), len(updated), opts.UseResize, elapsed)

	ev := RenderCompleteEvent{
		Mounted:   slices.Clone(mounted),
		Updated:   slices.Clone(updated),
		IsResize:  opts.UseResize,
		Direction: direction,
	}
	g.emit(func() { g.renderComplete.Emit(ev) })

	var reupdate []*Item
	for _, item := range updated {
		if item.ShouldReupdate {
			reupdate = append(reupdate, item)
		}
	}
	if len(reupdate) > 0 {
		g.updateItems(reupdate, RenderOptions{})
	}
}

// fitOutlines shifts outlines and items so the smallest start point is zero.
// Negative outlines are always fitted.
func (g *Grid) fitOutlines(useFit bool) {
	offset := MinOf(g.outlines.Start)
	if !useFit && offset > 0 {
		return
	}
	if offset == 0 {
		return
	}
	for i := range g.outlines.Start {
		g.outlines.Start[i] -= offset
	}
	for i := range g.outlines.End {
		g.outlines.End[i] -= offset
	}
	for _, item := range g.items {
		if pos, ok := item.CSSContentPos(); ok {
			item.SetCSSContentPos(pos - offset)
		}
	}
}

func (g *Grid) refreshContainerContentSize() {
	startPoint := MaxOf(g.outlines.Start)
	endPoint := MaxOf(g.outlines.End)
	g.containerManager.SetContentSize(math.Max(startPoint, endPoint-g.options.Gap))
}

func (g *Grid) onResize(e ResizeEvent) {
	g.do(func() {
		if g.destroyed {
			return
		}
		if e.IsResizeContainer {
			g.logger.Debug("container resized")
			g.renderItems(RenderOptions{UseResize: true})
			return
		}
		var changed []*Item
		for _, item := range g.items {
			if item.Element == nil || !slices.Contains(e.ChildEntries, item.Element) {
				continue
			}
			if item.Element.OffsetWidth() != math.Round(item.Rect.Width) ||
				item.Element.OffsetHeight() != math.Round(item.Rect.Height) {
				changed = append(changed, item)
			}
		}
		if len(changed) > 0 {
			g.updateItems(changed, RenderOptions{})
		}
	})
}
