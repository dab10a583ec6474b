package grid

import (
	"github.com/matzehuels/tilegrid/pkg/dom"
)

// RendererStatus is the serializable state of an ItemRenderer.
type RendererStatus struct {
	InitialRects map[string]Rect `json:"initialRects"`
}

// ItemRenderer measures items and commits their placement as inline style.
type ItemRenderer struct {
	opts Options

	// initialRects caches the first measurement per size group; "" is the
	// equal-size group.
	initialRects        map[string]Rect
	containerInlineSize float64
}

// NewItemRenderer creates a renderer for the given options.
func NewItemRenderer(opts Options) *ItemRenderer {
	return &ItemRenderer{opts: opts, initialRects: map[string]Rect{}}
}

// SetOptions replaces the renderer's options.
func (r *ItemRenderer) SetOptions(opts Options) { r.opts = opts }

// SetContainerInlineSize sets the base for percentage output.
func (r *ItemRenderer) SetContainerInlineSize(size float64) { r.containerInlineSize = size }

// Resize drops the size caches; the next measurement seeds them again.
func (r *ItemRenderer) Resize() {
	r.initialRects = map[string]Rect{}
}

// UpdateItems measures items. Items opening a size group are probed first so
// later members of the group reuse their rect.
func (r *ItemRenderer) UpdateItems(items []*Item) {
	for _, item := range items {
		r.UpdateItem(item, true)
	}
	for _, item := range items {
		r.UpdateItem(item, false)
	}
}

// UpdateItem refreshes one item's rect. With probe set, only items that can
// seed a size cache are measured. It reports whether the item was updated.
//
// Sources in order of precedence: the item's size group cache, the
// equal-size cache, the item's original rect for constant sizes, and a fresh
// measurement of the element.
func (r *ItemRenderer) UpdateItem(item *Item, probe bool) bool {
	attrs := item.Attributes
	if item.Element != nil {
		attrs = item.Element.Dataset(r.opts.AttributePrefix)
	}
	sizeGroup := attrs["sizeGroup"]
	_, notEqualSize := attrs["notEqualSize"]
	isLoading := item.UpdateState == WaitLoading
	inEqualGroup := r.opts.IsEqualSize && !notEqualSize && sizeGroup == ""

	if probe && sizeGroup == "" && !inEqualGroup {
		return false
	}

	var rect Rect
	switch {
	case sizeGroup != "" && r.hasGroup(sizeGroup):
		rect = r.initialRects[sizeGroup]
	case inEqualGroup && r.hasGroup(""):
		rect = r.initialRects[""]
	case !probe && r.opts.IsConstantSize && item.OrgRect.HasSize() && !isLoading && item.IsFirstUpdate:
		rect = item.OrgRect
	case item.Element != nil:
		rect = r.measure(item.Element)
	default:
		return false
	}

	item.Attributes = attrs
	item.ShouldReupdate = false
	if !item.IsFirstUpdate || !item.OrgRect.HasSize() {
		item.OrgRect = rect
	}
	item.Rect = rect
	if item.Element != nil {
		item.MountState = Mounted
	}
	if item.UpdateState == NeedUpdate {
		item.UpdateState = Updated
		item.IsFirstUpdate = true
	}

	if !isLoading {
		if sizeGroup != "" && !r.hasGroup(sizeGroup) {
			r.initialRects[sizeGroup] = rect
		}
		if inEqualGroup && !r.hasGroup("") {
			r.initialRects[""] = rect
		}
	}
	return true
}

func (r *ItemRenderer) hasGroup(name string) bool {
	_, ok := r.initialRects[name]
	return ok
}

// measure reads the element box. Rounded sizes come from the offset box,
// exact sizes from the bounding rect; the two are never mixed.
func (r *ItemRenderer) measure(el *dom.Element) Rect {
	rect := Rect{Left: el.OffsetLeft(), Top: el.OffsetTop()}
	if r.opts.UseRoundedSize {
		rect.Width = el.OffsetWidth()
		rect.Height = el.OffsetHeight()
	} else {
		b := el.BoundingClientRect()
		rect.Width = b.Width
		rect.Height = b.Height
	}
	return rect
}

// RenderItems commits every item's placement.
func (r *ItemRenderer) RenderItems(items []*Item) {
	for _, item := range items {
		r.renderItem(item)
	}
}

func (r *ItemRenderer) renderItem(item *Item) {
	el := item.Element
	if el == nil || item.CSSRect.Empty() {
		return
	}
	names := RectNames(r.opts.Horizontal)
	style := map[string]string{"position": "absolute"}

	for _, name := range []string{names.InlineSize, names.ContentSize} {
		if v, ok := item.CSSRect.Get(name); ok {
			style[name] = r.format(v, name == names.InlineSize && r.opts.percentageFor(PercentageSize))
		}
	}

	inlinePct := r.opts.percentageFor(PercentagePosition)
	if r.opts.UseTransform {
		left, hasLeft := item.CSSRect.Get("left")
		top, hasTop := item.CSSRect.Get("top")
		if hasLeft || hasTop {
			style["transform"] = "translate(" +
				r.format(left, inlinePct && names.InlinePos == "left") + ", " +
				r.format(top, inlinePct && names.InlinePos == "top") + ")"
		}
	} else {
		for _, name := range []string{names.InlinePos, names.ContentPos} {
			if v, ok := item.CSSRect.Get(name); ok {
				style[name] = r.format(v, name == names.InlinePos && inlinePct)
			}
		}
	}
	el.SetStyle(style)
}

func (r *ItemRenderer) format(v float64, percent bool) string {
	if percent && r.containerInlineSize > 0 {
		return formatPercent(v / r.containerInlineSize * 100)
	}
	return formatPx(v)
}

// Status snapshots the size caches.
func (r *ItemRenderer) Status() RendererStatus {
	rects := make(map[string]Rect, len(r.initialRects))
	for k, v := range r.initialRects {
		rects[k] = v
	}
	return RendererStatus{InitialRects: rects}
}

// SetStatus restores the size caches.
func (r *ItemRenderer) SetStatus(s RendererStatus) {
	r.initialRects = make(map[string]Rect, len(s.InitialRects))
	for k, v := range s.InitialRects {
		r.initialRects[k] = v
	}
}
