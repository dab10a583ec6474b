// Package sink exports a laid out grid to output formats.
//
// # Overview
//
// A "sink" turns a [Snapshot] of a settled grid into bytes. Snapshots are
// plain data, so sinks never touch the grid or its document:
//
//   - HTML: the document with the committed item styles
//   - JSON: item rects plus the grid status, for hydration or other tools
//   - SVG: a wireframe of the container and its items
//   - PDF: the wireframe drawn with github.com/tdewolff/canvas
//   - PNG: the wireframe rasterized with github.com/tdewolff/canvas
//
// [RowsDOT] and [RenderDOT] export a different artifact: the cut-point graph
// a justified grid searched to pick its rows, laid out by Graphviz.
//
// Basic usage:
//
//	snap := sink.Capture(g)
//	svg := sink.RenderSVG(snap, sink.WithLabels(), sink.WithPalette(sink.Pastel))
//
// # JSON Output
//
// [RenderJSON] writes the snapshot as indented JSON. The embedded status can
// be fed back to grid.Grid.SetStatus on the same markup to skip measurement.
//
// # PDF and PNG Output
//
// [RenderPDF] and [RenderPNG] draw the same boxes as the SVG sink without
// labels, so no fonts are loaded. One CSS pixel is 1/96 inch in the PDF and
// [WithScale] device pixels in the PNG.
package sink
