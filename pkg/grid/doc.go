// Package grid arranges the children of a container element with a pluggable
// placement [Strategy].
//
// A [Grid] tracks one [Item] per child element. A render pass measures the
// items that need it, asks the strategy to place every item against the
// current outline, writes the placement back to the elements as inline
// style, and grows the container to fit:
//
//	g, err := masonry.New(container, masonry.DefaultOptions())
//	g.RenderComplete().On(func(e grid.RenderCompleteEvent) { ... })
//	g.RenderItems(grid.RenderOptions{})
//
// # Outlines
//
// Strategies consume and produce an [Outlines] value: the per-track frontier
// before (Start) and after (End) the placed content. Re-rendering starts from
// the previous start outline, so a pass over unchanged items is idempotent.
//
// # Concurrency
//
// A Grid serializes every exported method on one mutex. Readiness checks,
// debounce timers and media loads call back from other goroutines and take the
// same lock. Events are dispatched after the lock is released, so handlers may
// call back into the grid.
package grid
