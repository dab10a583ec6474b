package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/kinds"
)

// Config is a grid.toml file. Top-level keys set pipeline options, the [grid]
// table sets base grid options and a table named after a kind sets that
// kind's options:
//
//	kind = "justified"
//	selector = "#gallery"
//	formats = ["html", "svg"]
//
//	[grid]
//	gap = 10
//	resize_debounce = "200ms"
//
//	[justified]
//	column_range = [2, 5]
//	size_range = [150, 400]
type Config struct {
	Kind     string   `toml:"kind"`
	Selector string   `toml:"selector"`
	Width    float64  `toml:"width"`
	Height   float64  `toml:"height"`
	Formats  []string `toml:"formats"`
	Labels   bool     `toml:"labels"`
	Palette  string   `toml:"palette"`
	Scale    float64  `toml:"scale"`

	// Grid holds the base options, starting from grid.DefaultOptions.
	Grid grid.Options `toml:"-"`

	tables map[string]toml.Primitive
	md     toml.MetaData
}

// LoadConfig reads a config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
	}
	return ParseConfig(string(data))
}

// ParseConfig parses config text. Kind tables are decoded lazily by
// [Config.Decoder], so they are only checked once the kind is built.
func ParseConfig(text string) (*Config, error) {
	c := &Config{Grid: grid.DefaultOptions()}
	if _, err := toml.Decode(text, c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}

	md, err := toml.Decode(text, &c.tables)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	c.md = md

	if p, ok := c.tables["grid"]; ok {
		if err := md.PrimitiveDecode(p, &c.Grid); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "decode [grid]")
		}
	}
	for name := range c.tables {
		if c.md.Type(name) == "Hash" && name != "grid" && !kinds.Has(name) {
			return nil, errors.New(errors.ErrCodeInvalidKind, "config table [%s] is not a grid kind", name)
		}
	}
	if c.Kind != "" {
		if err := kinds.Validate(c.Kind); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Decoder returns a decoder for the table of kind, or nil if the file has
// none.
func (c *Config) Decoder(kind string) kinds.Decode {
	p, ok := c.tables[kind]
	if !ok {
		return nil
	}
	return func(v any) error { return c.md.PrimitiveDecode(p, v) }
}

// Apply copies the file's values into opts where opts has none, so command
// line flags win over the file.
func (c *Config) Apply(opts *Options) {
	if opts.Kind == "" {
		opts.Kind = c.Kind
	}
	if opts.Selector == "" {
		opts.Selector = c.Selector
	}
	if opts.Width == 0 {
		opts.Width = c.Width
	}
	if opts.Height == 0 {
		opts.Height = c.Height
	}
	if len(opts.Formats) == 0 {
		opts.Formats = c.Formats
	}
	if !opts.Labels {
		opts.Labels = c.Labels
	}
	if opts.Palette == "" {
		opts.Palette = c.Palette
	}
	if opts.Scale == 0 {
		opts.Scale = c.Scale
	}
	if opts.Grid == nil {
		base := c.Grid
		opts.Grid = &base
	}
	if opts.Decode == nil {
		kind := opts.Kind
		if kind == "" {
			kind = DefaultKind
		}
		opts.Decode = c.Decoder(kind)
	}
}
