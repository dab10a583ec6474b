package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/observability"
	"github.com/matzehuels/tilegrid/pkg/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()
	result := &Result{DocHash: cache.Hash([]byte(opts.HTML))}

	// Stage 1: Parse
	parseStart := time.Now()
	hooks.OnParseStart(ctx, opts.Source)
	doc, container, err := Parse(opts)
	result.Stats.ParseTime = time.Since(parseStart)
	if err != nil {
		hooks.OnParseComplete(ctx, opts.Source, 0, result.Stats.ParseTime, err)
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Stats.ItemCount = len(container.Children())
	hooks.OnParseComplete(ctx, opts.Source, result.Stats.ItemCount, result.Stats.ParseTime, nil)

	opts.Logger.Info("parsed document",
		"source", opts.Source,
		"items", result.Stats.ItemCount,
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	hooks.OnLayoutStart(ctx, opts.Kind, result.Stats.ItemCount)
	snap, hit, err := r.LayoutWithCacheInfo(ctx, doc, container, opts, result)
	result.Stats.LayoutTime = time.Since(layoutStart)
	hooks.OnLayoutComplete(ctx, opts.Kind, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Snapshot = snap
	result.CacheInfo.LayoutHit = hit

	opts.Logger.Info("computed layout",
		"kind", opts.Kind,
		"passes", result.Stats.PassCount,
		"cached", hit,
		"duration", result.Stats.LayoutTime)
	if len(result.ContentErrors) > 0 {
		opts.Logger.Warn("content failed to load", "items", result.ContentErrors)
	}

	// Stage 3: Render
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, doc, snap, opts, result)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo lays out the container, restoring a cached status when
// one matches the document and every grid option. It fills in the pass count,
// content errors and layout hash of result.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc *dom.Document, container *dom.Element, opts Options, result *Result) (sink.Snapshot, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	l, err := NewLayout(container, opts)
	if err != nil {
		return sink.Snapshot{}, false, err
	}
	defer l.Close()

	cacheKey := r.Keyer.LayoutKey(result.DocHash, opts.LayoutKeyOpts(l.Grid))
	hit := false
	if !opts.Refresh {
		hit = r.restore(ctx, l, cacheKey, opts)
	}
	if !hit {
		if err := l.Run(ctx, doc, opts); err != nil {
			return sink.Snapshot{}, false, err
		}
		if data, err := l.Status(); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err != nil {
				opts.Logger.Warn("cache write failed", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, cache.KeyType(cacheKey), len(data))
			}
		} else {
			opts.Logger.Debug("status not cacheable", "err", err)
		}
	}

	snap := sink.Capture(l.Grid)
	result.Stats.PassCount = l.Passes()
	result.ContentErrors = l.ContentErrors()
	if data, err := sink.RenderJSON(snap, sink.WithoutStatus(), sink.WithoutID(), sink.WithIndent("")); err == nil {
		result.LayoutHash = cache.Hash(append([]byte(result.DocHash), data...))
	}
	return snap, hit, nil
}

func (r *Runner) restore(ctx context.Context, l *Layout, key string, opts Options) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Warn("cache read failed", "err", err)
		return false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, cache.KeyType(key))
		return false
	}
	if err := l.Restore(ctx, data); err != nil {
		// A stale entry falls through to a fresh layout.
		opts.Logger.Debug("cached status rejected", "err", err)
		_ = r.Cache.Delete(ctx, key)
		return false
	}
	observability.Cache().OnCacheHit(ctx, cache.KeyType(key))
	return true
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *dom.Document, snap sink.Snapshot, opts Options, result *Result) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(result.LayoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, cache.KeyType(key))
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, cache.KeyType(key))
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, doc, snap, renderOpts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(result.LayoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, cache.KeyType(key), len(data))
		}
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
