package sink

import (
	"bytes"
	"fmt"
	"html"
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels     bool
	palette    Palette
	background string
	padding    float64
}

// WithLabels writes each item's label, or its index when it has none.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithPalette sets the item fill colors.
func WithPalette(p Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }

// WithBackground fills the canvas before drawing the container.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithPadding adds space around the container.
func WithPadding(px float64) SVGOption { return func(r *svgRenderer) { r.padding = max(px, 0) } }

// RenderSVG draws the container outline and one box per item.
func RenderSVG(s Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{palette: Pastel}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := s.Bounds()
	pad := r.padding
	totalW, totalH := w+2*pad, h+2*pad

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		totalW, totalH, totalW, totalH)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(r.background))
	}
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f %.1f)" data-kind="%s">`+"\n", pad, pad, html.EscapeString(s.Kind))
	fmt.Fprintf(&buf, `    <rect class="container" x="0" y="0" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-dasharray="4 2"/>`+"\n",
		s.Width, s.Height, containerStroke)

	for _, it := range s.Items {
		renderItem(&buf, &r, it)
	}
	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func renderItem(buf *bytes.Buffer, r *svgRenderer, it Item) {
	fmt.Fprintf(buf, `    <rect class="item" id="item-%d" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s"/>`+"\n",
		it.Index, it.Rect.Left, it.Rect.Top, it.Rect.Width, it.Rect.Height, r.palette.color(it.Index), strokeColor)
	if !r.labels {
		return
	}
	label := it.Label
	if label == "" {
		label = fmt.Sprint(it.Index)
	}
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-family="sans-serif" font-size="12" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		it.Rect.Left+it.Rect.Width/2, it.Rect.Top+it.Rect.Height/2, html.EscapeString(label))
}
