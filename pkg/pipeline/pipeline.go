// Package pipeline provides the core layout pipeline for tilegrid.
//
// This package implements the complete parse → layout → render pipeline that
// is used by the CLI commands and the HTTP server. By centralizing this logic,
// every entry point lays out and caches documents the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Read the HTML document and locate the grid container
//  2. Layout: Settle media, run the grid until it is idle, or restore a
//     cached grid status instead of measuring
//  3. Render: Generate output in various formats (HTML, JSON, SVG, PDF, PNG)
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    HTML:     page,
//	    Kind:     "justified",
//	    Selector: "#gallery",
//	    Formats:  []string{"html", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Grid options come from a TOML file via [Config], or from JSON via
// Options.KindOptions.
package pipeline

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/kinds"
	"github.com/matzehuels/tilegrid/pkg/httputil"
	"github.com/matzehuels/tilegrid/pkg/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultKind is the grid kind used when none is given.
	DefaultKind = "masonry"

	// DefaultSelector locates the container when none is given.
	DefaultSelector = "#grid"

	// DefaultTimeout bounds how long media may take to load and the grid to
	// settle.
	DefaultTimeout = 30 * time.Second

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultPalette names the item fill colors.
	DefaultPalette = "pastel"
)

// Format constants for output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatHTML: true,
	FormatJSON: true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// Palettes maps palette names to sink palettes.
var Palettes = map[string]sink.Palette{
	"pastel": sink.Pastel,
	"mono":   sink.Mono,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	HTML     string  `json:"html"`
	Source   string  `json:"source,omitempty"` // Name for logs, e.g. the file path
	Selector string  `json:"selector,omitempty"`
	Width    float64 `json:"width,omitempty"`  // Container width override in px
	Height   float64 `json:"height,omitempty"` // Container height override in px

	// Layout options
	Kind        string          `json:"kind,omitempty"`
	Grid        *grid.Options   `json:"grid,omitempty"`    // Base options; nil uses grid.DefaultOptions
	KindOptions json.RawMessage `json:"options,omitempty"` // Kind options as a JSON object
	BaseDir     string          `json:"-"`                 // Resolves relative media sources
	Refresh     bool            `json:"refresh,omitempty"` // Skip the layout cache lookup

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Palette string   `json:"palette,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Decode     kinds.Decode    `json:"-"` // Takes precedence over KindOptions
	Timeout    time.Duration   `json:"-"`
	Logger     *log.Logger     `json:"-"`
	HTTPClient *http.Client    `json:"-"` // Enables http(s) media sources
	SizeCache  *httputil.Cache `json:"-"` // Remembers remote media sizes

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the laid out grid.
	Snapshot sink.Snapshot

	// DocHash is the content hash of the input document.
	DocHash string

	// LayoutHash is the content hash of the placed items.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// ContentErrors lists the indices of items whose media failed to load.
	ContentErrors []int

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ItemCount  int
	PassCount  int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the grid status came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: html, json, svg, pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePalette checks that a palette name is known.
func ValidatePalette(name string) error {
	if _, ok := Palettes[name]; !ok {
		return errors.New(errors.ErrCodeInvalidOption, "invalid palette: %q (must be one of: mono, pastel)", name)
	}
	return nil
}

// ParseFormats splits a comma separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if strings.TrimSpace(o.HTML) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "html is required")
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()

	if err := errors.ValidateSelector(o.Selector); err != nil {
		return err
	}
	if err := kinds.Validate(o.Kind); err != nil {
		return err
	}
	if err := errors.ValidateDimension("width", o.Width); err != nil {
		return err
	}
	if err := errors.ValidateDimension("height", o.Height); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidatePalette(o.Palette); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for parsing and layout.
func (o *Options) SetLayoutDefaults() {
	if o.Selector == "" {
		o.Selector = DefaultSelector
	}
	if o.Kind == "" {
		o.Kind = DefaultKind
	}
	if o.Source == "" {
		o.Source = "inline"
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatHTML}
	}
	if o.Palette == "" {
		o.Palette = DefaultPalette
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
}

// BaseOptions returns the base grid options in effect.
func (o *Options) BaseOptions() grid.Options {
	if o.Grid != nil {
		return *o.Grid
	}
	return grid.DefaultOptions()
}

// Decoder returns the kind options decoder in effect, or nil.
func (o *Options) Decoder() kinds.Decode {
	if o.Decode != nil {
		return o.Decode
	}
	if len(o.KindOptions) == 0 {
		return nil
	}
	raw := o.KindOptions
	return func(v any) error { return json.Unmarshal(raw, v) }
}

// LayoutKeyOpts returns cache key options for a built grid.
func (o *Options) LayoutKeyOpts(g *grid.Grid) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Kind:        o.Kind,
		Fingerprint: kinds.Fingerprint(g),
		Selector:    o.Selector,
		Width:       o.Width,
		Height:      o.Height,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG:
		opts.Labels = o.Labels
		opts.Palette = o.Palette
	case FormatPDF:
		opts.Palette = o.Palette
	case FormatPNG:
		opts.Palette = o.Palette
		opts.Scale = o.Scale
	}
	return opts
}
