// Package kinds maps grid kind names to constructors so configuration files,
// CLI flags and API requests can pick a placement strategy by name.
//
//	g, err := kinds.New("masonry", container, base, decode, grid.WithLogger(logger))
package kinds

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/frame"
	"github.com/matzehuels/tilegrid/pkg/grid/justified"
	"github.com/matzehuels/tilegrid/pkg/grid/masonry"
	"github.com/matzehuels/tilegrid/pkg/grid/packing"
)

// Decode fills a kind's options struct from configuration, e.g. a TOML
// table or a JSON object. The struct passed in already holds the kind's
// defaults.
type Decode func(v any) error

// Constructor builds a grid of one kind. base replaces the kind's embedded
// grid.Options before decode runs.
type Constructor func(container *dom.Element, base grid.Options, decode Decode, options ...grid.Option) (*grid.Grid, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

func init() {
	Register(masonry.Name, func(c *dom.Element, base grid.Options, decode Decode, options ...grid.Option) (*grid.Grid, error) {
		opts := masonry.DefaultOptions()
		opts.Options = base
		if err := apply(masonry.Name, decode, &opts); err != nil {
			return nil, err
		}
		g, err := masonry.New(c, opts, options...)
		if err != nil {
			return nil, err
		}
		return g.Grid, nil
	})
	Register(justified.Name, func(c *dom.Element, base grid.Options, decode Decode, options ...grid.Option) (*grid.Grid, error) {
		opts := justified.DefaultOptions()
		opts.Options = base
		if err := apply(justified.Name, decode, &opts); err != nil {
			return nil, err
		}
		g, err := justified.New(c, opts, options...)
		if err != nil {
			return nil, err
		}
		return g.Grid, nil
	})
	Register(frame.Name, func(c *dom.Element, base grid.Options, decode Decode, options ...grid.Option) (*grid.Grid, error) {
		opts := frame.DefaultOptions()
		opts.Options = base
		if err := apply(frame.Name, decode, &opts); err != nil {
			return nil, err
		}
		g, err := frame.New(c, opts, options...)
		if err != nil {
			return nil, err
		}
		return g.Grid, nil
	})
	Register(packing.Name, func(c *dom.Element, base grid.Options, decode Decode, options ...grid.Option) (*grid.Grid, error) {
		opts := packing.DefaultOptions()
		opts.Options = base
		if err := apply(packing.Name, decode, &opts); err != nil {
			return nil, err
		}
		g, err := packing.New(c, opts, options...)
		if err != nil {
			return nil, err
		}
		return g.Grid, nil
	})
}

func apply(kind string, decode Decode, v any) error {
	if decode == nil {
		return nil
	}
	if err := decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "decode %s options", kind)
	}
	return nil
}

// Register adds or replaces a kind.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = c
}

// Names lists the registered kinds in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func Has(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Validate returns an INVALID_KIND error for unknown names.
func Validate(name string) error {
	if Has(name) {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidKind, "unknown grid kind %q (must be one of: %s)", name, strings.Join(Names(), ", "))
}

// New builds a grid of the named kind on container.
func New(name string, container *dom.Element, base grid.Options, decode Decode, options ...grid.Option) (*grid.Grid, error) {
	mu.RLock()
	c, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, Validate(name)
	}
	return c(container, base, decode, options...)
}

// Fingerprint describes every option in effect on g as one stable line.
// Values are formatted with %v, so infinite ranges stay representable.
func Fingerprint(g *grid.Grid) string {
	props := g.Strategy().Properties()
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	fmt.Fprintf(&b, "kind=%s base=%+v", g.Kind(), g.Options())
	for _, name := range names {
		v, _ := g.Option(name)
		fmt.Fprintf(&b, " %s=%v", name, v)
	}
	return b.String()
}
