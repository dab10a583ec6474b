// Package event provides typed publish/subscribe topics.
package event

import "sync"

// Subscription identifies a handler registered on a [Topic].
type Subscription uint64

// Topic delivers values of type T to its subscribers. The zero value is ready
// to use. Handlers run on the emitting goroutine, outside the topic's lock, so
// they may subscribe, unsubscribe or emit again.
type Topic[T any] struct {
	mu       sync.Mutex
	next     Subscription
	handlers []handler[T]
}

type handler[T any] struct {
	id   Subscription
	fn   func(T)
	once bool
}

// On registers fn for every emission.
func (t *Topic[T]) On(fn func(T)) Subscription {
	return t.add(fn, false)
}

// Once registers fn for the next emission only.
func (t *Topic[T]) Once(fn func(T)) Subscription {
	return t.add(fn, true)
}

func (t *Topic[T]) add(fn func(T), once bool) Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.handlers = append(t.handlers, handler[T]{id: t.next, fn: fn, once: once})
	return t.next
}

// Off removes a subscription. Unknown subscriptions are ignored.
func (t *Topic[T]) Off(sub Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, h := range t.handlers {
		if h.id == sub {
			t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
			return
		}
	}
}

// Clear removes every subscription.
func (t *Topic[T]) Clear() {
	t.mu.Lock()
	t.handlers = nil
	t.mu.Unlock()
}

// Emit calls every current subscriber with v, in subscription order.
func (t *Topic[T]) Emit(v T) {
	t.mu.Lock()
	fns := make([]func(T), 0, len(t.handlers))
	kept := t.handlers[:0:0]
	for _, h := range t.handlers {
		fns = append(fns, h.fn)
		if !h.once {
			kept = append(kept, h)
		}
	}
	t.handlers = kept
	t.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers)
}
