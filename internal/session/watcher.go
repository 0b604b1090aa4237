// Package session mirrors the identity provider's signed-in state for the UI.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Veraticus/skinscope/internal/identity"
)

// ErrDeactivated is returned by Wait when the watcher stops first.
var ErrDeactivated = errors.New("session watcher deactivated")

// Status is the watcher's view of the session.
type Status int

// Session statuses. Determining only occurs before the first notification.
const (
	Determining Status = iota
	Present
	Absent
)

func (s Status) String() string {
	switch s {
	case Determining:
		return "determining"
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// State is a snapshot of the watcher.
type State struct {
	Session *identity.Session
	Status  Status
}

// Subscriber is the part of an identity provider the watcher needs.
type Subscriber interface {
	Subscribe(fn identity.Listener) (unsubscribe func())
}

// Watcher holds exactly one provider subscription while active and records
// the most recent notification. It never redirects or renders.
type Watcher struct {
	source      Subscriber
	unsubscribe func()
	observers   map[int]chan State
	state       State
	nextID      int
	mu          sync.Mutex
	active      bool
	closed      bool
}

// NewWatcher creates an inactive watcher in the Determining state.
func NewWatcher(source Subscriber) *Watcher {
	return &Watcher{
		source:    source,
		observers: make(map[int]chan State),
	}
}

// Activate registers the provider subscription. Calling it again is a no-op.
func (w *Watcher) Activate() {
	w.mu.Lock()
	if w.active || w.closed {
		w.mu.Unlock()
		return
	}
	w.active = true
	w.mu.Unlock()

	unsubscribe := w.source.Subscribe(w.handle)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		unsubscribe()
		return
	}
	w.unsubscribe = unsubscribe
}

// Deactivate cancels the subscription. Notifications arriving afterwards are ignored.
func (w *Watcher) Deactivate() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	for id, ch := range w.observers {
		close(ch)
		delete(w.observers, id)
	}
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns the current snapshot.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{Status: w.state.Status, Session: w.state.Session.Clone()}
}

// Observe returns a channel that always holds the latest state once it
// changes, plus a function to stop observing. The channel is closed on
// Deactivate or cancel.
func (w *Watcher) Observe() (<-chan State, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := make(chan State, 1)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	id := w.nextID
	w.nextID++
	w.observers[id] = ch
	if w.state.Status != Determining {
		ch <- w.state
	}

	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if c, ok := w.observers[id]; ok {
			close(c)
			delete(w.observers, id)
		}
	}
}

// handle is the provider callback and the only writer of the mirrored state.
func (w *Watcher) handle(s *identity.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	next := State{Status: Absent}
	if s != nil {
		next = State{Status: Present, Session: s.Clone()}
	}
	if w.state.Status != next.Status {
		slog.Debug("Session state changed", "from", w.state.Status, "to", next.Status)
	}
	w.state = next

	for _, ch := range w.observers {
		// Replace any unread value so observers only ever see the newest state.
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

// Wait blocks until the first notification has arrived and returns the state.
func (w *Watcher) Wait(ctx context.Context) (State, error) {
	updates, stop := w.Observe()
	defer stop()

	select {
	case state, ok := <-updates:
		if !ok {
			return w.State(), ErrDeactivated
		}
		return state, nil
	case <-ctx.Done():
		return w.State(), ctx.Err()
	}
}
