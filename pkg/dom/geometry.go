package dom

import (
	"math"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Rect is a box in document pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Default size of replaced elements that declare nothing.
const (
	defaultReplacedWidth  = 300
	defaultReplacedHeight = 150
)

type axis int

const (
	axisX axis = iota
	axisY
)

// ClientWidth returns the element's inner width.
func (e *Element) ClientWidth() float64 {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return size(e, axisX)
}

// ClientHeight returns the element's inner height.
func (e *Element) ClientHeight() float64 {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return size(e, axisY)
}

// OffsetWidth returns the width rounded to whole pixels.
func (e *Element) OffsetWidth() float64 { return math.Round(e.ClientWidth()) }

// OffsetHeight returns the height rounded to whole pixels.
func (e *Element) OffsetHeight() float64 { return math.Round(e.ClientHeight()) }

// OffsetLeft returns the inline left style, rounded.
func (e *Element) OffsetLeft() float64 {
	v, _ := e.inlineOffset("left")
	return math.Round(v)
}

// OffsetTop returns the inline top style, rounded.
func (e *Element) OffsetTop() float64 {
	v, _ := e.inlineOffset("top")
	return math.Round(v)
}

// BoundingClientRect returns the unrounded box, including any translate() transform.
func (e *Element) BoundingClientRect() Rect {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	left, _ := resolveOffset(e, "left")
	top, _ := resolveOffset(e, "top")
	tx, ty := parseTranslate(styleValue(e.node.Attr, "transform"))
	return Rect{
		Left:   left + tx,
		Top:    top + ty,
		Width:  size(e, axisX),
		Height: size(e, axisY),
	}
}

func (e *Element) inlineOffset(name string) (float64, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return resolveOffset(e, name)
}

func resolveOffset(e *Element, name string) (float64, bool) {
	l, ok := parseLength(styleValue(e.node.Attr, name))
	if !ok {
		return 0, false
	}
	if !l.percent {
		return l.value, true
	}
	ax := axisX
	if name == "top" {
		ax = axisY
	}
	base, ok := parentDeclared(e, ax)
	if !ok {
		return 0, false
	}
	return base * l.value / 100, true
}

// size resolves the box model for one axis. Callers hold doc.mu.
func size(e *Element, ax axis) float64 {
	if hidden(e.node) {
		return 0
	}
	if v, ok := declared(e, ax); ok {
		return v
	}
	if isReplacedNode(e.node) {
		if ax == axisX {
			return defaultReplacedWidth
		}
		return defaultReplacedHeight
	}
	return shrinkToFit(e, ax)
}

// declared returns the size fixed by style, attributes or intrinsic media
// size, without consulting children.
func declared(e *Element, ax axis) (float64, bool) {
	prop := "width"
	if ax == axisY {
		prop = "height"
	}
	if l, ok := parseLength(styleValue(e.node.Attr, prop)); ok {
		if !l.percent {
			return l.value, true
		}
		if base, ok := parentDeclared(e, ax); ok {
			return base * l.value / 100, true
		}
	}
	if isReplacedNode(e.node) {
		if l, ok := parseLength(attr(e.node, prop)); ok && !l.percent {
			return l.value, true
		}
	}
	if isMediaNode(e.node) && e.complete && e.failure == nil && e.naturalWidth > 0 && e.naturalHeight > 0 {
		ratio := e.naturalHeight / e.naturalWidth
		if ax == axisX {
			if h, ok := declaredOther(e, "height"); ok {
				return h / ratio, true
			}
			return e.naturalWidth, true
		}
		if w, ok := declaredOther(e, "width"); ok {
			return w * ratio, true
		}
		return e.naturalHeight, true
	}
	return 0, false
}

// declaredOther reads the opposite dimension from style or attributes only.
func declaredOther(e *Element, prop string) (float64, bool) {
	if l, ok := parseLength(styleValue(e.node.Attr, prop)); ok && !l.percent {
		return l.value, true
	}
	if l, ok := parseLength(attr(e.node, prop)); ok && !l.percent {
		return l.value, true
	}
	return 0, false
}

func parentDeclared(e *Element, ax axis) (float64, bool) {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return 0, false
	}
	return declared(e.doc.wrap(p), ax)
}

func shrinkToFit(e *Element, ax axis) float64 {
	var total float64
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || outOfFlow(c) {
			continue
		}
		v := size(e.doc.wrap(c), ax)
		if ax == axisX {
			total = math.Max(total, v)
		} else {
			total += v
		}
	}
	return total
}

func hidden(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Template, atom.Head:
		return true
	}
	return strings.TrimSpace(styleValue(n.Attr, "display")) == "none"
}

func outOfFlow(n *html.Node) bool {
	switch strings.TrimSpace(styleValue(n.Attr, "position")) {
	case "absolute", "fixed":
		return true
	}
	return hidden(n)
}

// parseTranslate extracts x and y from "translate(10px, 20px)".
func parseTranslate(s string) (x, y float64) {
	i := strings.Index(s, "translate(")
	if i < 0 {
		return 0, 0
	}
	rest := s[i+len("translate("):]
	j := strings.IndexByte(rest, ')')
	if j < 0 {
		return 0, 0
	}
	parts := strings.Split(rest[:j], ",")
	if l, ok := parseLength(parts[0]); ok && !l.percent {
		x = l.value
	}
	if len(parts) > 1 {
		if l, ok := parseLength(parts[1]); ok && !l.percent {
			y = l.value
		}
	}
	return x, y
}
