package sink

import (
	"bytes"

	"github.com/tdewolff/canvas/renderers/pdf"
)

// PDFOption configures PDF rendering.
type PDFOption func(*canvasRenderer)

// WithPDFPalette sets the item fill colors.
func WithPDFPalette(p Palette) PDFOption { return func(r *canvasRenderer) { r.palette = p } }

// WithPDFPadding adds space around the container.
func WithPDFPadding(px float64) PDFOption {
	return func(r *canvasRenderer) { r.padding = max(px, 0) }
}

// RenderPDF draws the snapshot on a single page sized to its bounds.
func RenderPDF(s Snapshot, opts ...PDFOption) ([]byte, error) {
	r := canvasRenderer{palette: Pastel}
	for _, opt := range opts {
		opt(&r)
	}
	c := r.draw(s)

	var buf bytes.Buffer
	writer := pdf.New(&buf, c.W, c.H, nil)
	writer.SetInfo(s.Kind+" grid", "", "", "", "tilegrid")
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
