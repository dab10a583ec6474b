package dom

// Event types dispatched by media elements.
const (
	EventLoad  = "load"
	EventError = "error"
)

// Event is delivered to listeners registered with [Element.AddEventListener].
type Event struct {
	Type   string
	Target *Element
	Err    error
}

// AddEventListener registers fn for events of type typ on e and returns a
// function that removes it. Removing twice is harmless.
func (e *Element) AddEventListener(typ string, fn func(Event)) (remove func()) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[string]map[int]func(Event))
	}
	if e.listeners[typ] == nil {
		e.listeners[typ] = make(map[int]func(Event))
	}
	id := e.nextID
	e.nextID++
	e.listeners[typ][id] = fn

	return func() {
		e.doc.mu.Lock()
		defer e.doc.mu.Unlock()
		delete(e.listeners[typ], id)
	}
}

// ListenerCount returns the number of listeners registered for typ.
func (e *Element) ListenerCount(typ string) int {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return len(e.listeners[typ])
}

// listenersFor snapshots listeners in registration order. Callers hold doc.mu.
func (e *Element) listenersFor(typ string) []func(Event) {
	m := e.listeners[typ]
	if len(m) == 0 {
		return nil
	}
	fns := make([]func(Event), 0, len(m))
	for id := 0; id < e.nextID; id++ {
		if fn, ok := m[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func dispatch(fns []func(Event), ev Event) {
	for _, fn := range fns {
		fn(ev)
	}
}
