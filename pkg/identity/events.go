package identity

import "sync"

// dispatcher fans session-change events out to registered handlers.
// Dispatch is synchronous so that tests observe state transitions
// deterministically; handlers must not call back into the provider
// while holding their own locks.
type dispatcher struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]ChangeHandler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[int]ChangeHandler)}
}

func (d *dispatcher) subscribe(h ChangeHandler) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.handlers[id] = h
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.handlers, id)
		d.mu.Unlock()
	}
}

func (d *dispatcher) emit(event EventType, session *Session) {
	d.mu.Lock()
	handlers := make([]ChangeHandler, 0, len(d.handlers))
	for _, h := range d.handlers {
		handlers = append(handlers, h)
	}
	d.mu.Unlock()

	// Each handler gets its own copy so none can mutate the provider's
	// state through the payload.
	for _, h := range handlers {
		h(event, session.Clone())
	}
}
