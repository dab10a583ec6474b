package grid

import (
	"github.com/matzehuels/tilegrid/pkg/dom"
)

// MountState tracks whether an item's element has been measured.
type MountState int

const (
	Unchecked MountState = iota
	Unmounted
	Mounted
)

func (s MountState) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case Mounted:
		return "mounted"
	}
	return "unchecked"
}

// UpdateState gates whether an item takes part in the next pass.
type UpdateState int

const (
	NeedUpdate UpdateState = iota
	WaitLoading
	Updated
)

func (s UpdateState) String() string {
	switch s {
	case WaitLoading:
		return "wait_loading"
	case Updated:
		return "updated"
	}
	return "need_update"
}

// GridData holds per-item values a strategy keeps between passes.
type GridData struct {
	InlineOffset  float64 `json:"inlineOffset,omitempty"`
	ContentOffset float64 `json:"contentOffset,omitempty"`
}

// Item is one managed element.
type Item struct {
	// Key is the key attribute under the grid prefix, else the element id.
	Key        string
	Element    *dom.Element
	Horizontal bool

	OrgCSSText string
	OrgRect    Rect
	Rect       Rect
	CSSRect    CSSRect
	Attributes map[string]string
	GridData   GridData

	MountState  MountState
	UpdateState UpdateState

	// IsFirstUpdate is set once the item has been measured outside of loading.
	// OrgRect is not overwritten afterwards unless it has no size.
	IsFirstUpdate       bool
	IsUpdate            bool
	ShouldReupdate      bool
	IsRestoreOrgCSSText bool
}

// NewItem creates an item for el. The element's current inline style is kept
// so it can be restored on destroy.
func NewItem(el *dom.Element, horizontal bool, attributePrefix string) *Item {
	item := &Item{
		Element:             el,
		Horizontal:          horizontal,
		Attributes:          map[string]string{},
		IsRestoreOrgCSSText: true,
	}
	if el != nil {
		item.OrgCSSText = el.CSSText()
		item.Attributes = el.Dataset(attributePrefix)
		item.Key = item.Attributes["key"]
		if item.Key == "" {
			item.Key = el.Attr("id")
		}
	}
	return item
}

func (it *Item) names() Names { return RectNames(it.Horizontal) }

// Attr returns an attribute value, or "" when absent.
func (it *Item) Attr(name string) string { return it.Attributes[name] }

// HasAttr reports whether an attribute is present.
func (it *Item) HasAttr(name string) bool {
	_, ok := it.Attributes[name]
	return ok
}

func (it *Item) InlinePos() float64   { return it.Rect.Get(it.names().InlinePos) }
func (it *Item) ContentPos() float64  { return it.Rect.Get(it.names().ContentPos) }
func (it *Item) InlineSize() float64  { return it.Rect.Get(it.names().InlineSize) }
func (it *Item) ContentSize() float64 { return it.Rect.Get(it.names().ContentSize) }

func (it *Item) OrgInlineSize() float64  { return it.OrgRect.Get(it.names().InlineSize) }
func (it *Item) OrgContentSize() float64 { return it.OrgRect.Get(it.names().ContentSize) }

// CSSInlinePos returns the computed inline position, if set.
func (it *Item) CSSInlinePos() (float64, bool) { return it.CSSRect.Get(it.names().InlinePos) }

// CSSContentPos returns the computed content position, if set.
func (it *Item) CSSContentPos() (float64, bool) { return it.CSSRect.Get(it.names().ContentPos) }

// CSSInlineSize returns the computed inline size, if set.
func (it *Item) CSSInlineSize() (float64, bool) { return it.CSSRect.Get(it.names().InlineSize) }

// CSSContentSize returns the computed content size, if set.
func (it *Item) CSSContentSize() (float64, bool) { return it.CSSRect.Get(it.names().ContentSize) }

func (it *Item) SetCSSInlinePos(v float64)   { it.CSSRect.Set(it.names().InlinePos, v) }
func (it *Item) SetCSSContentPos(v float64)  { it.CSSRect.Set(it.names().ContentPos, v) }
func (it *Item) SetCSSInlineSize(v float64)  { it.CSSRect.Set(it.names().InlineSize, v) }
func (it *Item) SetCSSContentSize(v float64) { it.CSSRect.Set(it.names().ContentSize, v) }

// ComputedInlineSize is the computed inline size, falling back to the measured one.
func (it *Item) ComputedInlineSize() float64 {
	if v, ok := it.CSSInlineSize(); ok {
		return v
	}
	return it.InlineSize()
}

// ComputedContentSize is the computed content size, falling back to the measured one.
func (it *Item) ComputedContentSize() float64 {
	if v, ok := it.CSSContentSize(); ok {
		return v
	}
	return it.ContentSize()
}

// ComputedInlinePos is the computed inline position, falling back to the measured one.
func (it *Item) ComputedInlinePos() float64 {
	if v, ok := it.CSSInlinePos(); ok {
		return v
	}
	return it.InlinePos()
}

// ComputedContentPos is the computed content position, falling back to the measured one.
func (it *Item) ComputedContentPos() float64 {
	if v, ok := it.CSSContentPos(); ok {
		return v
	}
	return it.ContentPos()
}

// SetCSSGridRect stores a logical placement.
func (it *Item) SetCSSGridRect(r GridRect) {
	it.SetCSSInlinePos(r.InlinePos)
	it.SetCSSContentPos(r.ContentPos)
	it.SetCSSInlineSize(r.InlineSize)
	it.SetCSSContentSize(r.ContentSize)
}

// GridRect returns the measured rectangle in logical coordinates.
func (it *Item) GridRect() GridRect { return ToGridRect(it.Rect, it.Horizontal) }

// ComputedGridRect returns the placement, falling back to measured values.
func (it *Item) ComputedGridRect() GridRect {
	return GridRect{
		InlinePos:   it.ComputedInlinePos(),
		ContentPos:  it.ComputedContentPos(),
		InlineSize:  it.ComputedInlineSize(),
		ContentSize: it.ComputedContentSize(),
	}
}

// ItemStatus is the serializable state of an item.
type ItemStatus struct {
	Key           string            `json:"key,omitempty"`
	OrgCSSText    string            `json:"orgCSSText,omitempty"`
	OrgRect       Rect              `json:"orgRect"`
	Rect          Rect              `json:"rect"`
	CSSRect       CSSRect           `json:"cssRect"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	GridData      GridData          `json:"gridData"`
	MountState    MountState        `json:"mountState,omitempty"`
	UpdateState   UpdateState       `json:"updateState,omitempty"`
	IsFirstUpdate bool              `json:"isFirstUpdate,omitempty"`
}

// Status returns the full state of the item. The element is not included.
func (it *Item) Status() ItemStatus {
	attrs := make(map[string]string, len(it.Attributes))
	for k, v := range it.Attributes {
		attrs[k] = v
	}
	return ItemStatus{
		Key:           it.Key,
		OrgCSSText:    it.OrgCSSText,
		OrgRect:       it.OrgRect,
		Rect:          it.Rect,
		CSSRect:       it.CSSRect.Clone(),
		Attributes:    attrs,
		GridData:      it.GridData,
		MountState:    it.MountState,
		UpdateState:   it.UpdateState,
		IsFirstUpdate: it.IsFirstUpdate,
	}
}

// MinimizedStatus is Status without the values that can be recomputed from
// the element: attributes are re-read on the next measurement.
func (it *Item) MinimizedStatus() ItemStatus {
	s := it.Status()
	if it.Element != nil {
		s.Attributes = nil
	}
	return s
}

// NewItemFromStatus rebuilds an item bound to el.
func NewItemFromStatus(el *dom.Element, horizontal bool, s ItemStatus) *Item {
	attrs := make(map[string]string, len(s.Attributes))
	for k, v := range s.Attributes {
		attrs[k] = v
	}
	return &Item{
		Key:                 s.Key,
		Element:             el,
		Horizontal:          horizontal,
		OrgCSSText:          s.OrgCSSText,
		OrgRect:             s.OrgRect,
		Rect:                s.Rect,
		CSSRect:             s.CSSRect.Clone(),
		Attributes:          attrs,
		GridData:            s.GridData,
		MountState:          s.MountState,
		UpdateState:         s.UpdateState,
		IsFirstUpdate:       s.IsFirstUpdate,
		IsRestoreOrgCSSText: true,
	}
}
