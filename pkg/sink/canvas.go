package sink

import (
	"github.com/tdewolff/canvas"
)

// mmPerPx converts CSS pixels to canvas millimetres.
const mmPerPx = 25.4 / 96

type canvasRenderer struct {
	palette    Palette
	background string
	padding    float64
}

func (r canvasRenderer) draw(s Snapshot) *canvas.Canvas {
	w, h := s.Bounds()
	w = max(w+2*r.padding, 1)
	h = max(h+2*r.padding, 1)

	c := canvas.New(w*mmPerPx, h*mmPerPx)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	if r.background != "" {
		ctx.SetFillColor(canvas.Hex(r.background))
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(0, 0, canvas.Rectangle(w*mmPerPx, h*mmPerPx))
	}

	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(canvas.Hex(containerStroke))
	ctx.SetStrokeWidth(0.5 * mmPerPx)
	ctx.DrawPath(r.padding*mmPerPx, r.padding*mmPerPx, canvas.Rectangle(s.Width*mmPerPx, s.Height*mmPerPx))

	ctx.SetStrokeColor(canvas.Hex(strokeColor))
	ctx.SetStrokeWidth(mmPerPx)
	for _, it := range s.Items {
		if it.Rect.Width <= 0 || it.Rect.Height <= 0 {
			continue
		}
		ctx.SetFillColor(canvas.Hex(r.palette.color(it.Index)))
		ctx.DrawPath(
			(r.padding+it.Rect.Left)*mmPerPx,
			(r.padding+it.Rect.Top)*mmPerPx,
			canvas.Rectangle(it.Rect.Width*mmPerPx, it.Rect.Height*mmPerPx),
		)
	}
	return c
}
