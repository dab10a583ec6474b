package grid

import (
	"sync"
	"time"

	"github.com/matzehuels/tilegrid/pkg/dom"
)

// ResizeEvent is emitted by a ResizeWatcher once a burst of resizes settles.
type ResizeEvent struct {
	IsResizeContainer bool
	ChildEntries      []*dom.Element
}

// ResizeWatcher debounces resize notifications. A second, longer timer
// bounds the delay under a continuous stream of notifications.
type ResizeWatcher struct {
	scheduler   Scheduler
	debounce    time.Duration
	maxDebounce time.Duration
	onResize    func(ResizeEvent)

	mu        sync.Mutex
	timer     Timer
	maxTimer  Timer
	container bool
	children  []*dom.Element
	destroyed bool
}

// NewResizeWatcher creates a watcher delivering settled bursts to onResize.
func NewResizeWatcher(s Scheduler, debounce, maxDebounce time.Duration, onResize func(ResizeEvent)) *ResizeWatcher {
	return &ResizeWatcher{
		scheduler:   s,
		debounce:    debounce,
		maxDebounce: maxDebounce,
		onResize:    onResize,
	}
}

// ContainerResized records a container resize and restarts the debounce.
func (w *ResizeWatcher) ContainerResized() {
	w.schedule(true, nil)
}

// ChildrenResized records resized children and restarts the debounce.
func (w *ResizeWatcher) ChildrenResized(children []*dom.Element) {
	if len(children) == 0 {
		return
	}
	w.schedule(false, children)
}

func (w *ResizeWatcher) schedule(container bool, children []*dom.Element) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return
	}
	w.container = w.container || container
	w.children = append(w.children, children...)

	if w.maxTimer == nil && w.maxDebounce > 0 && w.maxDebounce >= w.debounce {
		w.maxTimer = w.scheduler.AfterFunc(w.maxDebounce, w.fire)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.scheduler.AfterFunc(w.debounce, w.fire)
}

func (w *ResizeWatcher) fire() {
	w.mu.Lock()
	if w.destroyed || (w.timer == nil && w.maxTimer == nil) {
		w.mu.Unlock()
		return
	}
	w.stopLocked()
	ev := ResizeEvent{IsResizeContainer: w.container, ChildEntries: w.children}
	w.container = false
	w.children = nil
	w.mu.Unlock()

	w.onResize(ev)
}

// Pending reports whether a resize is waiting to fire.
func (w *ResizeWatcher) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil || w.maxTimer != nil
}

// Destroy cancels pending timers; later notifications are ignored.
func (w *ResizeWatcher) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
	w.stopLocked()
}

func (w *ResizeWatcher) stopLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.maxTimer != nil {
		w.maxTimer.Stop()
		w.maxTimer = nil
	}
}
