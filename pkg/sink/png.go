package sink

import (
	"bytes"
	"image/png"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	canvasRenderer
	scale float64
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithPNGPalette sets the item fill colors.
func WithPNGPalette(p Palette) PNGOption { return func(r *pngRenderer) { r.palette = p } }

// WithPNGBackground fills the image before drawing. PNGs are transparent
// otherwise.
func WithPNGBackground(color string) PNGOption {
	return func(r *pngRenderer) { r.background = color }
}

// RenderPNG rasterizes the snapshot.
func RenderPNG(s Snapshot, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{canvasRenderer: canvasRenderer{palette: Pastel}, scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	c := r.draw(s)
	img := rasterizer.Draw(c, canvas.DPI(96*r.scale), canvas.DefaultColorSpace)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
