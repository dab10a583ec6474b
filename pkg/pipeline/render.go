package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/sink"
)

// Render generates output artifacts in the requested formats concurrently.
// doc is only needed for HTML output.
func Render(ctx context.Context, doc *dom.Document, snap sink.Snapshot, opts Options) (map[string][]byte, error) {
	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(opts.Formats))

	g, _ := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := RenderFormat(doc, snap, format, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// RenderFormat generates one artifact.
func RenderFormat(doc *dom.Document, snap sink.Snapshot, format string, opts Options) ([]byte, error) {
	palette := Palettes[opts.Palette]
	if palette == nil {
		palette = sink.Pastel
	}

	var data []byte
	var err error
	switch format {
	case FormatHTML:
		if doc == nil {
			return nil, errors.New(errors.ErrCodeUnsupported, "html output needs the document")
		}
		data, err = sink.RenderHTML(doc)
	case FormatJSON:
		data, err = sink.RenderJSON(snap)
	case FormatSVG:
		svgOpts := []sink.SVGOption{sink.WithPalette(palette)}
		if opts.Labels {
			svgOpts = append(svgOpts, sink.WithLabels())
		}
		data = sink.RenderSVG(snap, svgOpts...)
	case FormatPDF:
		data, err = sink.RenderPDF(snap, sink.WithPDFPalette(palette))
	case FormatPNG:
		data, err = sink.RenderPNG(snap, sink.WithPNGPalette(palette), sink.WithScale(opts.Scale))
	default:
		return nil, ValidateFormat(format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return data, nil
}
