// Package dom models the slice of a browser document that a grid layout needs:
// element identity, data attributes, inline styles, box measurement and media
// load state.
//
// A [Document] wraps a golang.org/x/net/html tree. Elements are exposed as
// stable [*Element] handles, one per element node, so they can be used as
// identity keys when reconciling children.
//
// # Geometry
//
// Elements are measured with a deliberately small box model:
//
//  1. Inline style width/height (px, unitless, or % of the parent's declared size)
//  2. width/height attributes on replaced elements (img, video, canvas, iframe, svg)
//  3. Intrinsic size of a complete media element, keeping its aspect ratio when
//     only one dimension is declared
//  4. Shrink-to-fit over element children: widest child, summed child heights
//
// # Media
//
// img and video elements with a src start incomplete. A loader (or a test)
// settles them with [Document.Load] or [Document.Fail], which dispatch "load"
// and "error" events to listeners registered with [Element.AddEventListener].
//
// # Concurrency
//
// All element accessors are safe for concurrent use. Listeners are invoked
// without any document lock held.
package dom
