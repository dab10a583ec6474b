package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilegrid/pkg/errors"
)

// Direction selects which side of the outline new content is placed on.
type Direction string

const (
	DirectionStart Direction = "start"
	DirectionEnd   Direction = "end"
)

// PropertyType says what happens when an option changes at runtime.
type PropertyType int

const (
	// Property changes take effect on the next pass.
	Property PropertyType = iota
	// RenderProperty changes schedule a pass when RenderOnPropertyChange is set.
	RenderProperty
)

// Percentage granularity values.
const (
	PercentagePosition = "position"
	PercentageSize     = "size"
)

// Options configures a Grid. Zero values are not defaults; start from
// [DefaultOptions].
type Options struct {
	Horizontal             bool          `toml:"horizontal" json:"horizontal"`
	UseTransform           bool          `toml:"use_transform" json:"useTransform"`
	Percentage             []string      `toml:"percentage" json:"percentage,omitempty"`
	IsEqualSize            bool          `toml:"is_equal_size" json:"isEqualSize"`
	IsConstantSize         bool          `toml:"is_constant_size" json:"isConstantSize"`
	Gap                    float64       `toml:"gap" json:"gap"`
	AttributePrefix        string        `toml:"attribute_prefix" json:"attributePrefix"`
	ResizeDebounce         time.Duration `toml:"resize_debounce" json:"resizeDebounce"`
	MaxResizeDebounce      time.Duration `toml:"max_resize_debounce" json:"maxResizeDebounce"`
	AutoResize             bool          `toml:"auto_resize" json:"autoResize"`
	PreserveUIOnDestroy    bool          `toml:"preserve_ui_on_destroy" json:"preserveUIOnDestroy"`
	DefaultDirection       Direction     `toml:"default_direction" json:"defaultDirection"`
	RenderOnPropertyChange bool          `toml:"render_on_property_change" json:"renderOnPropertyChange"`
	UseFit                 bool          `toml:"use_fit" json:"useFit"`
	OutlineLength          int           `toml:"outline_length" json:"outlineLength"`
	OutlineSize            float64       `toml:"outline_size" json:"outlineSize"`
	UseRoundedSize         bool          `toml:"use_rounded_size" json:"useRoundedSize"`
	UseResizeObserver      bool          `toml:"use_resize_observer" json:"useResizeObserver"`
	ObserveChildren        bool          `toml:"observe_children" json:"observeChildren"`
}

// DefaultOptions returns the base defaults shared by every strategy.
func DefaultOptions() Options {
	return Options{
		AttributePrefix:        "data-grid-",
		ResizeDebounce:         100 * time.Millisecond,
		AutoResize:             true,
		DefaultDirection:       DirectionEnd,
		RenderOnPropertyChange: true,
		UseFit:                 true,
		UseRoundedSize:         true,
	}
}

// normalize clamps nonsensical values instead of rejecting them.
func (o Options) normalize() Options {
	if o.AttributePrefix == "" {
		o.AttributePrefix = "data-grid-"
	}
	if o.DefaultDirection != DirectionStart {
		o.DefaultDirection = DirectionEnd
	}
	if o.Gap < 0 || math.IsNaN(o.Gap) || math.IsInf(o.Gap, 0) {
		o.Gap = 0
	}
	if o.ResizeDebounce < 0 {
		o.ResizeDebounce = 0
	}
	if o.MaxResizeDebounce < 0 {
		o.MaxResizeDebounce = 0
	}
	if o.OutlineLength < 0 {
		o.OutlineLength = 0
	}
	if o.OutlineSize < 0 || math.IsNaN(o.OutlineSize) {
		o.OutlineSize = 0
	}
	return o
}

// percentageFor reports whether a logical field is written as a percentage.
func (o Options) percentageFor(kind string) bool {
	for _, p := range o.Percentage {
		if p == kind || p == "true" || p == "all" {
			return true
		}
	}
	return false
}

// baseProperties lists the runtime-settable base options.
var baseProperties = map[string]PropertyType{
	"gap":                    RenderProperty,
	"defaultDirection":       Property,
	"renderOnPropertyChange": Property,
	"preserveUIOnDestroy":    Property,
	"useFit":                 Property,
	"outlineSize":            RenderProperty,
	"outlineLength":          RenderProperty,
}

// BaseProperties returns a copy of the base property table.
func BaseProperties() map[string]PropertyType {
	out := make(map[string]PropertyType, len(baseProperties))
	for k, v := range baseProperties {
		out[k] = v
	}
	return out
}

func (o *Options) set(name string, value any) error {
	var err error
	switch name {
	case "gap":
		var v float64
		if v, err = AsFloat(value); err == nil {
			o.Gap = v
		}
	case "defaultDirection":
		var v string
		if v, err = AsString(value); err == nil {
			o.DefaultDirection = Direction(v)
		}
	case "renderOnPropertyChange":
		o.RenderOnPropertyChange, err = AsBool(value)
	case "preserveUIOnDestroy":
		o.PreserveUIOnDestroy, err = AsBool(value)
	case "useFit":
		o.UseFit, err = AsBool(value)
	case "outlineSize":
		o.OutlineSize, err = AsFloat(value)
	case "outlineLength":
		o.OutlineLength, err = AsInt(value)
	default:
		return errors.New(errors.ErrCodeInvalidOption, "unknown option %q", name)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "option %q", name)
	}
	*o = o.normalize()
	return nil
}

func (o Options) get(name string) (any, bool) {
	switch name {
	case "gap":
		return o.Gap, true
	case "defaultDirection":
		return o.DefaultDirection, true
	case "renderOnPropertyChange":
		return o.RenderOnPropertyChange, true
	case "preserveUIOnDestroy":
		return o.PreserveUIOnDestroy, true
	case "useFit":
		return o.UseFit, true
	case "outlineSize":
		return o.OutlineSize, true
	case "outlineLength":
		return o.OutlineLength, true
	}
	return nil, false
}

// =============================================================================
// Construction options
// =============================================================================

// Option configures how a Grid is wired, as opposed to how it lays out.
type Option func(*Grid)

// WithLogger sets the logger for pass-level debug output.
func WithLogger(logger *log.Logger) Option {
	return func(g *Grid) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) Option {
	return func(g *Grid) {
		if s != nil {
			g.scheduler = s
		}
	}
}

// WithID fixes the instance ID instead of generating one.
func WithID(id string) Option {
	return func(g *Grid) {
		if id != "" {
			g.id = id
		}
	}
}

// =============================================================================
// Value conversion for SetOption
// =============================================================================

// AsFloat converts numbers, numeric strings and json.Number to float64.
func AsFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

// AsInt converts numbers to int, truncating fractions.
func AsInt(v any) (int, error) {
	f, err := AsFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected a finite number, got %v", f)
	}
	return int(f), nil
}

// AsBool converts booleans and "true"/"false" strings.
func AsBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}

// AsString converts strings and fmt.Stringers.
func AsString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return "", fmt.Errorf("expected a string, got %T", v)
}

// AsFloatPair converts a scalar (used for both ends) or a two element list.
func AsFloatPair(v any) ([2]float64, error) {
	switch x := v.(type) {
	case [2]float64:
		return x, nil
	case [2]int:
		return [2]float64{float64(x[0]), float64(x[1])}, nil
	case []float64:
		return pairOf(len(x), func(i int) (float64, error) { return x[i], nil })
	case []int:
		return pairOf(len(x), func(i int) (float64, error) { return float64(x[i]), nil })
	case []any:
		return pairOf(len(x), func(i int) (float64, error) { return AsFloat(x[i]) })
	}
	f, err := AsFloat(v)
	if err != nil {
		return [2]float64{}, err
	}
	return [2]float64{f, f}, nil
}

// AsIntPair is AsFloatPair truncated to ints.
func AsIntPair(v any) ([2]int, error) {
	p, err := AsFloatPair(v)
	if err != nil {
		return [2]int{}, err
	}
	return [2]int{int(p[0]), int(p[1])}, nil
}

func pairOf(n int, at func(int) (float64, error)) ([2]float64, error) {
	if n != 2 {
		return [2]float64{}, fmt.Errorf("expected 2 values, got %d", n)
	}
	a, err := at(0)
	if err != nil {
		return [2]float64{}, err
	}
	b, err := at(1)
	if err != nil {
		return [2]float64{}, err
	}
	return [2]float64{a, b}, nil
}
