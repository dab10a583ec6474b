package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/kinds"
	"github.com/matzehuels/tilegrid/pkg/loader"
)

// Layout is a grid being driven to a settled state.
type Layout struct {
	Grid *grid.Grid

	mu            sync.Mutex
	passes        int
	contentErrors []int
	unsubscribe   func()
}

// NewLayout builds the configured grid kind on container.
func NewLayout(container *dom.Element, opts Options, options ...grid.Option) (*Layout, error) {
	options = append([]grid.Option{grid.WithLogger(opts.Logger)}, options...)
	g, err := kinds.New(opts.Kind, container, opts.BaseOptions(), opts.Decoder(), options...)
	if err != nil {
		return nil, err
	}

	l := &Layout{Grid: g}
	passes := g.RenderComplete().On(func(grid.RenderCompleteEvent) {
		l.mu.Lock()
		l.passes++
		l.mu.Unlock()
	})
	failures := g.ContentError().On(func(e grid.ContentErrorEvent) {
		index := slices.Index(g.Items(), e.Item)
		l.mu.Lock()
		if index >= 0 && !slices.Contains(l.contentErrors, index) {
			l.contentErrors = append(l.contentErrors, index)
		}
		l.mu.Unlock()
	})
	l.unsubscribe = func() {
		g.RenderComplete().Off(passes)
		g.ContentError().Off(failures)
	}
	return l, nil
}

// Run settles the document's media and renders until the grid is idle.
func (l *Layout) Run(ctx context.Context, doc *dom.Document, opts Options) error {
	ld := loader.New(opts.BaseDir,
		loader.WithLogger(opts.Logger),
		loader.WithHTTPClient(opts.HTTPClient),
		loader.WithSizeCache(opts.SizeCache))
	ld.Start(ctx, doc)
	defer ld.Wait()

	l.Grid.RenderItems(grid.RenderOptions{})
	return l.Grid.WaitSettled(ctx)
}

// Restore applies a cached status instead of measuring.
func (l *Layout) Restore(ctx context.Context, data []byte) error {
	var status grid.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStatus, err, "decode cached status")
	}
	if len(status.Items) != len(l.Grid.Children()) {
		return errors.New(errors.ErrCodeInvalidStatus,
			"cached status has %d items, container has %d children", len(status.Items), len(l.Grid.Children()))
	}
	if err := l.Grid.SetStatus(status); err != nil {
		return err
	}
	return l.Grid.WaitSettled(ctx)
}

// Status encodes the full grid status for caching.
func (l *Layout) Status() ([]byte, error) {
	return json.Marshal(l.Grid.Status(false))
}

// Passes returns the number of renderComplete events seen.
func (l *Layout) Passes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.passes
}

// ContentErrors returns the indices of items whose content failed.
func (l *Layout) ContentErrors() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := slices.Clone(l.contentErrors)
	slices.Sort(out)
	return out
}

// Close detaches the grid. Committed styles are kept.
func (l *Layout) Close() {
	l.unsubscribe()
	l.Grid.Destroy(grid.DestroyOptions{PreserveUI: true})
}
