package grid

import (
	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
)

// Status is a serializable snapshot of a grid. Restoring it on the same
// markup skips measurement and placement.
type Status struct {
	Outlines         Outlines        `json:"outlines"`
	Items            []ItemStatus    `json:"items"`
	ContainerManager ContainerStatus `json:"containerManager"`
	ItemRenderer     RendererStatus  `json:"itemRenderer"`
}

// Status snapshots the grid. With minimize set, values that are re-read
// from the elements are left out.
func (g *Grid) Status(minimize bool) Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	items := make([]ItemStatus, len(g.items))
	for i, item := range g.items {
		if minimize {
			items[i] = item.MinimizedStatus()
		} else {
			items[i] = item.Status()
		}
	}
	return Status{
		Outlines:         g.outlines.Clone(),
		Items:            items,
		ContainerManager: g.containerManager.Status(),
		ItemRenderer:     g.itemRenderer.Status(),
	}
}

// SetStatus restores a snapshot. Items are bound to the container's children
// index for index. If the container's inline size changed since the snapshot
// was taken, a resize pass runs; otherwise renderComplete fires on the next
// tick with no mounted or updated items.
func (g *Grid) SetStatus(s Status) error {
	if len(s.Outlines.Start) != len(s.Outlines.End) {
		return errors.New(errors.ErrCodeInvalidStatus,
			"outline lengths differ: start %d, end %d", len(s.Outlines.Start), len(s.Outlines.End))
	}

	var err error
	g.do(func() {
		if g.destroyed {
			err = errors.New(errors.ErrCodeDestroyed, "grid %s is destroyed", g.id)
			return
		}
		g.clearRenderTimer()
		if g.checker != nil {
			g.checker.Destroy()
			g.checker = nil
		}
		g.batch++
		g.checking = false

		g.itemRenderer.SetStatus(s.ItemRenderer)
		g.containerManager.SetStatus(s.ContainerManager)
		g.outlines = s.Outlines.Clone()

		children := g.container.Children()
		items := make([]*Item, len(s.Items))
		for i, is := range s.Items {
			var el *dom.Element
			if i < len(children) {
				el = children[i]
			}
			item := NewItemFromStatus(el, g.options.Horizontal, is)
			if len(item.Attributes) == 0 && el != nil {
				item.Attributes = el.Dataset(g.options.AttributePrefix)
			}
			items[i] = item
		}
		g.items = items

		g.itemRenderer.SetContainerInlineSize(g.containerManager.InlineSize())
		g.itemRenderer.RenderItems(items)
		g.refreshContainerContentSize()

		live := g.container.ClientWidth()
		if g.options.Horizontal {
			live = g.container.ClientHeight()
		}
		if live != g.containerManager.InlineSize() {
			g.logger.Debug("status restored with a different container size", "was", g.containerManager.InlineSize(), "now", live)
			g.renderItems(RenderOptions{UseResize: true})
			return
		}

		g.logger.Debug("status restored", "items", len(items))
		direction := g.options.DefaultDirection
		g.pendingDone++
		g.scheduler.AfterFunc(0, func() {
			g.do(func() {
				g.pendingDone--
				if g.destroyed {
					return
				}
				ev := RenderCompleteEvent{Direction: direction}
				g.emit(func() { g.renderComplete.Emit(ev) })
			})
		})
	})
	return err
}
