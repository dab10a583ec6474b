// Package imready reports when a batch of elements has a known size.
//
// Elements whose size depends on media (img, video) are not measurable until
// that media has loaded. A [Checker] watches a batch of elements and reports
// two levels of readiness:
//
//   - pre-ready: the size is known, because the media loaded or because the
//     element declares its size up front (loading="lazy", width/height attributes)
//   - ready: every media element inside has finished loading or failed
//
// A Checker is single use. Create one per batch and Destroy it when the batch
// is superseded; a destroyed Checker never calls back again.
package imready

import (
	"strings"
	"sync"

	"github.com/matzehuels/tilegrid/pkg/dom"
)

// ReadyElementEvent is delivered once per element when it becomes ready.
type ReadyElementEvent struct {
	Index   int
	Element *dom.Element
	// IsPreReadyOver is true when the batch-wide pre-ready signal had already
	// fired before this element became ready.
	IsPreReadyOver bool
	HasError       bool
}

// ErrorEvent is delivered for every media element that failed to load.
type ErrorEvent struct {
	Index   int
	Element *dom.Element
	Target  *dom.Element
	Err     error
}

// Deferrer runs fn later, on another call stack.
type Deferrer func(fn func())

// Checker watches one batch of elements.
type Checker struct {
	prefix string
	deferFn Deferrer

	onPreReadyElement func(int)
	onPreReady        func()
	onReadyElement    func(ReadyElementEvent)
	onError           func(ErrorEvent)
	onReady           func()

	mu            sync.Mutex
	destroyed     bool
	evaluated     bool
	infos         []*elementInfo
	removers      []func()
	preReadyCount int
	readyCount    int
	preReadyFired bool
	readyFired    bool
}

type elementInfo struct {
	index    int
	element  *dom.Element
	pending  int
	preReady bool
	ready    bool
	hasError bool
}

// New creates a checker. Attributes are read with prefix (e.g. "data-grid-").
// A nil defer function runs the evaluation in a new goroutine.
func New(prefix string, deferFn Deferrer) *Checker {
	if deferFn == nil {
		deferFn = func(fn func()) { go fn() }
	}
	return &Checker{prefix: prefix, deferFn: deferFn}
}

// OnPreReadyElement registers the per-element pre-ready callback.
func (c *Checker) OnPreReadyElement(fn func(index int)) *Checker {
	c.onPreReadyElement = fn
	return c
}

// OnPreReady registers the batch pre-ready callback.
func (c *Checker) OnPreReady(fn func()) *Checker {
	c.onPreReady = fn
	return c
}

// OnReadyElement registers the per-element ready callback.
func (c *Checker) OnReadyElement(fn func(ReadyElementEvent)) *Checker {
	c.onReadyElement = fn
	return c
}

// OnError registers the content error callback.
func (c *Checker) OnError(fn func(ErrorEvent)) *Checker {
	c.onError = fn
	return c
}

// OnReady registers the batch ready callback.
func (c *Checker) OnReady(fn func()) *Checker {
	c.onReady = fn
	return c
}

// Check starts watching elements. Evaluation is deferred, so no callback runs
// before Check returns.
func (c *Checker) Check(elements []*dom.Element) {
	c.deferFn(func() { c.evaluate(elements) })
}

// Destroy detaches every listener. Pending callbacks become no-ops.
func (c *Checker) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	removers := c.removers
	c.removers = nil
	c.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

// Destroyed reports whether Destroy was called.
func (c *Checker) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

func (c *Checker) evaluate(elements []*dom.Element) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	var out []func()
	c.infos = make([]*elementInfo, len(elements))
	for i, el := range elements {
		c.infos[i] = &elementInfo{index: i, element: el}
	}
	for _, info := range c.infos {
		out = c.inspect(info, out)
	}
	c.evaluated = true
	out = c.checkBatch(out)
	c.mu.Unlock()

	c.emit(out)
}

// inspect decides how one element becomes ready. Callers hold c.mu.
func (c *Checker) inspect(info *elementInfo, out []func()) []func() {
	el := info.element
	if el == nil || c.isSkipped(el) {
		out = c.markPreReady(info, out)
		return c.markReady(info, out)
	}

	var targets []*dom.Element
	if el.IsMedia() {
		targets = []*dom.Element{el}
	} else {
		targets = el.Find(func(d *dom.Element) bool { return d.IsMedia() })
	}

	for _, target := range targets {
		settled := new(bool)
		removeLoad := target.AddEventListener(dom.EventLoad, func(dom.Event) {
			c.childSettled(info, target, settled, nil)
		})
		removeErr := target.AddEventListener(dom.EventError, func(ev dom.Event) {
			c.childSettled(info, target, settled, ev.Err)
		})

		if target.Complete() {
			*settled = true
			removeLoad()
			removeErr()
			if err := target.Err(); err != nil {
				info.hasError = true
				out = c.errorEvent(info, target, err, out)
			}
			continue
		}
		info.pending++
		c.removers = append(c.removers, removeLoad, removeErr)
	}

	if info.pending > 0 && c.hasDeclaredSize(el) {
		out = c.markPreReady(info, out)
	}
	if info.pending == 0 {
		out = c.markPreReady(info, out)
		out = c.markReady(info, out)
	}
	return out
}

// childSettled runs on the goroutine that settled target. settled is guarded by c.mu.
func (c *Checker) childSettled(info *elementInfo, target *dom.Element, settled *bool, err error) {
	c.mu.Lock()
	if c.destroyed || *settled {
		c.mu.Unlock()
		return
	}
	*settled = true
	var out []func()
	if err != nil {
		info.hasError = true
		out = c.errorEvent(info, target, err, out)
	}
	info.pending--
	if info.pending == 0 {
		out = c.markPreReady(info, out)
		out = c.markReady(info, out)
	}
	if c.evaluated {
		out = c.checkBatch(out)
	}
	c.mu.Unlock()

	c.emit(out)
}

func (c *Checker) markPreReady(info *elementInfo, out []func()) []func() {
	if info.preReady {
		return out
	}
	info.preReady = true
	c.preReadyCount++
	if fn := c.onPreReadyElement; fn != nil {
		index := info.index
		out = append(out, func() { fn(index) })
	}
	return out
}

func (c *Checker) markReady(info *elementInfo, out []func()) []func() {
	if info.ready {
		return out
	}
	info.ready = true
	c.readyCount++
	if fn := c.onReadyElement; fn != nil {
		ev := ReadyElementEvent{
			Index:          info.index,
			Element:        info.element,
			IsPreReadyOver: c.preReadyFired,
			HasError:       info.hasError,
		}
		out = append(out, func() { fn(ev) })
	}
	return out
}

func (c *Checker) errorEvent(info *elementInfo, target *dom.Element, err error, out []func()) []func() {
	if fn := c.onError; fn != nil {
		ev := ErrorEvent{Index: info.index, Element: info.element, Target: target, Err: err}
		out = append(out, func() { fn(ev) })
	}
	return out
}

func (c *Checker) checkBatch(out []func()) []func() {
	n := len(c.infos)
	if !c.preReadyFired && c.preReadyCount == n {
		c.preReadyFired = true
		if fn := c.onPreReady; fn != nil {
			out = append(out, fn)
		}
	}
	if !c.readyFired && c.readyCount == n {
		c.readyFired = true
		if fn := c.onReady; fn != nil {
			out = append(out, fn)
		}
	}
	return out
}

func (c *Checker) emit(out []func()) {
	for _, fn := range out {
		if c.Destroyed() {
			return
		}
		fn()
	}
}

func (c *Checker) isSkipped(el *dom.Element) bool {
	if !el.HasAttr(c.prefix + "skip") {
		return false
	}
	return !strings.EqualFold(el.Attr(c.prefix+"skip"), "false")
}

func (c *Checker) hasDeclaredSize(el *dom.Element) bool {
	if strings.EqualFold(el.Attr("loading"), "lazy") {
		return true
	}
	if el.HasAttr(c.prefix+"width") && el.HasAttr(c.prefix+"height") {
		return true
	}
	return el.HasAttr("width") && el.HasAttr("height")
}
