package grid

import "math"

// Rect is a physical rectangle in pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HasSize reports whether both dimensions are non-zero.
func (r Rect) HasSize() bool { return r.Width != 0 && r.Height != 0 }

// Get returns the field called name ("left", "top", "width" or "height").
func (r Rect) Get(name string) float64 {
	switch name {
	case "left":
		return r.Left
	case "top":
		return r.Top
	case "width":
		return r.Width
	case "height":
		return r.Height
	}
	return 0
}

// Set assigns the field called name.
func (r *Rect) Set(name string, v float64) {
	switch name {
	case "left":
		r.Left = v
	case "top":
		r.Top = v
	case "width":
		r.Width = v
	case "height":
		r.Height = v
	}
}

// CSSRect is the placement a strategy computed for an item. Unset fields are
// not written to the element.
type CSSRect struct {
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Get returns the field called name and whether it is set.
func (r CSSRect) Get(name string) (float64, bool) {
	var p *float64
	switch name {
	case "left":
		p = r.Left
	case "top":
		p = r.Top
	case "width":
		p = r.Width
	case "height":
		p = r.Height
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set assigns the field called name.
func (r *CSSRect) Set(name string, v float64) {
	p := &v
	switch name {
	case "left":
		r.Left = p
	case "top":
		r.Top = p
	case "width":
		r.Width = p
	case "height":
		r.Height = p
	}
}

// Empty reports whether no field is set.
func (r CSSRect) Empty() bool {
	return r.Left == nil && r.Top == nil && r.Width == nil && r.Height == nil
}

// Clone returns a deep copy.
func (r CSSRect) Clone() CSSRect {
	var out CSSRect
	for _, name := range physicalNames {
		if v, ok := r.Get(name); ok {
			out.Set(name, v)
		}
	}
	return out
}

var physicalNames = [4]string{"left", "top", "width", "height"}

// GridRect is a rectangle in logical coordinates: inline runs across tracks,
// content runs along them.
type GridRect struct {
	InlinePos   float64 `json:"inlinePos"`
	ContentPos  float64 `json:"contentPos"`
	InlineSize  float64 `json:"inlineSize"`
	ContentSize float64 `json:"contentSize"`
}

// Names maps logical names to physical CSS properties.
type Names struct {
	InlinePos   string
	ContentPos  string
	InlineSize  string
	ContentSize string
}

var (
	verticalNames   = Names{InlinePos: "left", ContentPos: "top", InlineSize: "width", ContentSize: "height"}
	horizontalNames = Names{InlinePos: "top", ContentPos: "left", InlineSize: "height", ContentSize: "width"}
)

// RectNames returns the physical names for an orientation.
func RectNames(horizontal bool) Names {
	if horizontal {
		return horizontalNames
	}
	return verticalNames
}

// ToGridRect projects a physical rectangle onto the logical axes.
func ToGridRect(r Rect, horizontal bool) GridRect {
	n := RectNames(horizontal)
	return GridRect{
		InlinePos:   r.Get(n.InlinePos),
		ContentPos:  r.Get(n.ContentPos),
		InlineSize:  r.Get(n.InlineSize),
		ContentSize: r.Get(n.ContentSize),
	}
}

// FromGridRect maps a logical rectangle back to physical coordinates.
func FromGridRect(g GridRect, horizontal bool) Rect {
	n := RectNames(horizontal)
	var r Rect
	r.Set(n.InlinePos, g.InlinePos)
	r.Set(n.ContentPos, g.ContentPos)
	r.Set(n.InlineSize, g.InlineSize)
	r.Set(n.ContentSize, g.ContentSize)
	return r
}

// Outlines is the frontier before and after a batch of placed items.
type Outlines struct {
	Start []float64 `json:"start"`
	End   []float64 `json:"end"`
}

// Clone returns a deep copy.
func (o Outlines) Clone() Outlines {
	return Outlines{Start: cloneFloats(o.Start), End: cloneFloats(o.End)}
}

func cloneFloats(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return append([]float64{}, s...)
}

// MinOf returns the smallest value, or 0 for an empty slice.
func MinOf(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	m := s[0]
	for _, v := range s[1:] {
		m = math.Min(m, v)
	}
	return m
}

// MaxOf returns the largest value, or 0 for an empty slice.
func MaxOf(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	m := s[0]
	for _, v := range s[1:] {
		m = math.Max(m, v)
	}
	return m
}
