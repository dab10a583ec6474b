// Package pkg provides the core libraries for tilegrid, a layout engine that
// positions the children of a container element in a grid.
//
// # Overview
//
// A grid reads the children of a container, measures them, hands their sizes
// to a placement strategy and writes the resulting positions back as inline
// styles. The pkg directory is organized into four areas:
//
//  1. [grid] - The grid orchestrator and its placement strategies
//  2. [dom] and [loader] - The document model and media measurement
//  3. [pipeline] - Orchestration (parse → layout → render)
//  4. [sink], [cache] and [snapshot] - Outputs, caching and persistence
//
// # Architecture
//
// The typical data flow through tilegrid:
//
//	HTML document
//	     ↓
//	[dom] package (parse, query the container)
//	     ↓
//	[loader] package (probe image and video sizes)
//	     ↓
//	[grid] package (reconcile, wait for readiness, place, commit)
//	     ↓
//	[sink] package (HTML, JSON, SVG, PDF, PNG)
//
// # Quick Start
//
//	doc, _ := dom.ParseString(html)
//	container, _ := doc.Query("#grid")
//
//	g, _ := masonry.New(container, masonry.DefaultOptions())
//	g.RenderItems(grid.RenderOptions{})
//	_ = g.WaitSettled(ctx)
//
//	svg := sink.RenderSVG(sink.Capture(g.Grid))
//
// Or run everything with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    HTML:    html,
//	    Kind:    "justified",
//	    Formats: []string{"html", "svg"},
//	})
//
// # Main Packages
//
// ## Layout
//
// [grid] - The Grid orchestrator: item tracking, container sizing, the
// readiness gate, debounced resize handling, status save and restore.
//
// [grid/masonry], [grid/justified], [grid/frame], [grid/packing] - The
// placement strategies. [grid/kinds] picks one by name.
//
// [listdiff] - Keyed list diffing used to reconcile children with items.
//
// [imready] - Readiness tracking for elements whose size is not known yet.
//
// ## Document
//
// [dom] - A thread-safe element tree over golang.org/x/net/html with inline
// style, attribute and geometry access.
//
// [loader] - Settles image and video elements from local files or, with
// [httputil], over HTTP.
//
// ## Infrastructure
//
// [pipeline] - The parse → layout → render pipeline used by the CLI and the
// HTTP server.
//
// [cache] - File, Redis and null caches for layouts and artifacts.
//
// [snapshot] - File and MongoDB stores for saved layouts.
//
// [observability] - Hooks for metrics and tracing.
//
// [errors] - Error codes shared by every package.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// [grid]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/grid
// [grid/masonry]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/grid/masonry
// [grid/justified]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/grid/justified
// [grid/frame]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/grid/frame
// [grid/packing]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/grid/packing
// [grid/kinds]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/grid/kinds
// [listdiff]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/listdiff
// [imready]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/imready
// [dom]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/dom
// [loader]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/loader
// [httputil]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/httputil
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/pipeline
// [sink]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/sink
// [cache]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/cache
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/snapshot
// [observability]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/tilegrid/pkg/errors
package pkg
