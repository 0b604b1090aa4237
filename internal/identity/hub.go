package identity

import (
	"slices"
	"sync"
)

// Hub fans session changes out to subscribers.
//
// Until SetReady is called the current session is unknown and nobody is
// notified. Afterwards every subscriber receives the current value at least
// once; subscribers registered later are primed from a separate goroutine so
// Subscribe never calls back into its caller. Publish delivers synchronously
// and in order.
type Hub struct {
	subs    map[uint64]*subscriber
	current *Session
	readyCh chan struct{}
	next    uint64
	mu      sync.Mutex
	deliver sync.Mutex
	ready   bool
	closed  bool
}

type subscriber struct {
	fn     Listener
	primed bool
}

// NewHub creates a hub with no known session.
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[uint64]*subscriber),
		readyCh: make(chan struct{}),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = &subscriber{fn: fn}
	ready := h.ready
	h.mu.Unlock()

	if ready {
		go h.prime(id)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) prime(id uint64) {
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	sub, ok := h.subs[id]
	if !ok || sub.primed {
		h.mu.Unlock()
		return
	}
	sub.primed = true
	current := h.current.Clone()
	h.mu.Unlock()

	sub.fn(current)
}

// SetReady records the restored session and notifies every subscriber.
// Only the first call has any effect.
func (h *Hub) SetReady(s *Session) {
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	if h.ready || h.closed {
		h.mu.Unlock()
		return
	}
	h.ready = true
	h.current = s.Clone()
	close(h.readyCh)
	h.mu.Unlock()

	h.broadcast()
}

// Publish records a session change and notifies every subscriber before returning.
func (h *Hub) Publish(s *Session) {
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.current = s.Clone()
	if !h.ready {
		h.ready = true
		close(h.readyCh)
	}
	h.mu.Unlock()

	h.broadcast()
}

// broadcast must be called with deliver held.
func (h *Hub) broadcast() {
	h.mu.Lock()
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		h.mu.Lock()
		sub, ok := h.subs[id]
		if ok {
			sub.primed = true
		}
		current := h.current.Clone()
		h.mu.Unlock()
		if ok {
			sub.fn(current)
		}
	}
}

// Current returns the last known session and whether the hub is ready.
func (h *Hub) Current() (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Clone(), h.ready
}

// Ready is closed once the current session is known.
func (h *Hub) Ready() <-chan struct{} {
	return h.readyCh
}

// Close drops all subscribers. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[uint64]*subscriber)
}
