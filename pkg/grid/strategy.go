package grid

import "github.com/matzehuels/tilegrid/pkg/dom"

// Env is the grid state a strategy may read during a pass.
type Env struct {
	ContainerInlineSize  float64
	ContainerContentSize float64
	Gap                  float64
	Horizontal           bool
	AttributePrefix      string
	OutlineLength        int
	OutlineSize          float64
}

// Strategy places items. Implementations are pure over items and outline,
// except for strategies that read element geometry of mounted items.
type Strategy interface {
	// Name identifies the strategy kind, e.g. "masonry".
	Name() string

	// ApplyGrid sets every item's CSSRect starting from outline and returns
	// the outlines before and after the placed items.
	ApplyGrid(env Env, items []*Item, direction Direction, outline []float64) Outlines

	// OutlineLength is the number of tracks the strategy would use.
	OutlineLength(env Env, items []*Item) int

	// OutlineSize is the inline size of one track.
	OutlineSize(env Env, items []*Item) float64

	// Properties lists the strategy's runtime-settable options.
	Properties() map[string]PropertyType

	// Property returns the current value of a strategy option.
	Property(name string) (any, bool)

	// SetProperty updates a strategy option.
	SetProperty(name string, value any) error
}

// RenderOptions tunes one call to RenderItems, UpdateItems or SyncElements.
type RenderOptions struct {
	// UseResize re-measures the container and every item.
	UseResize bool
	// UseOrgResize also restores each item's original style and re-captures
	// its original rect.
	UseOrgResize bool
	// Direction overrides Options.DefaultDirection.
	Direction Direction
	// Outline overrides the outline the pass starts from.
	Outline []float64
}

// DestroyOptions tunes Destroy.
type DestroyOptions struct {
	// PreserveUI keeps the committed styles in place.
	PreserveUI bool
}

// RenderCompleteEvent is emitted after every placement pass.
type RenderCompleteEvent struct {
	Mounted   []*Item
	Updated   []*Item
	IsResize  bool
	Direction Direction
}

// ContentErrorEvent is emitted once per element whose content failed to load.
type ContentErrorEvent struct {
	Item    *Item
	Element *dom.Element
	Target  *dom.Element
	Err     error
	// Update queues the item for re-measurement when the current readiness
	// batch completes.
	Update func()
}
