package store

import (
	"sync"
)

// State is the store's value: a flat mapping of dynamic keys to arbitrary
// values. It has no required shape.
type State map[string]any

// Partial is a proposed update: a subset of keys with their new values.
type Partial map[string]any

// Diff is the subset of an update whose values actually differ from the
// current state. An empty Diff means the update was a no-op.
type Diff map[string]any

// Listener is anything that can observe state changes.
//
// OnChange receives the diff and the state as it was immediately before the
// update being reported -- never the post-update state, even though by the
// time the listener runs the store's live state has already advanced.
type Listener interface {
	OnChange(diff Diff, prior State)

	// ID returns a unique identifier for this listener.
	// Used for deduplication in the registry.
	ID() uint64
}

// funcListener adapts a plain function to the Listener interface.
type funcListener struct {
	id uint64
	fn func(Diff, State)
}

func (l *funcListener) OnChange(diff Diff, prior State) { l.fn(diff, prior) }
func (l *funcListener) ID() uint64                      { return l.id }

// ListenerFunc wraps a function as a Listener with a fresh identity.
// Each call allocates a new ID, so subscribing the same wrapped function
// twice requires reusing the returned Listener, not wrapping again.
func ListenerFunc(fn func(diff Diff, prior State)) Listener {
	return &funcListener{id: NextListenerID(), fn: fn}
}

// Store owns exactly one live State value and a listener registry.
// The state is replaced wholesale on each effective update, never mutated
// in place.
type Store struct {
	// mu protects state and version.
	mu      sync.RWMutex
	state   State
	version uint64

	// subMu protects the subs slice.
	subMu sync.RWMutex
	subs  []Listener
}

// New creates a store with the given initial state.
// A nil initial state is treated as empty.
func New(initial State) *Store {
	if initial == nil {
		initial = State{}
	}
	return &Store{state: initial}
}

// State returns the current live state.
// The returned map is the store's live value: callers must treat it as
// read-only and go through Set for every mutation.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the number of effective updates applied so far.
// No-op updates do not advance the version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set applies an update to the store.
//
// The update's partial state is resolved against the current state, then
// reduced to the keys whose values actually changed. If nothing changed,
// Set returns the current state unchanged and notifies nobody. Otherwise
// the state is replaced with the shallow merge of the prior state and the
// diff, every registered listener is invoked in registration order with
// (diff, prior), and the new state is returned.
//
// Set does not return until every listener's synchronous body has run.
// Listeners may start asynchronous work of their own; Set does not wait
// for that.
func (s *Store) Set(u Update) State {
	s.mu.Lock()
	prior := s.state
	partial := u.resolve(prior)

	diff := make(Diff, len(partial))
	for k, v := range partial {
		// Absent keys read as nil, so setting an absent key to nil
		// stays out of the diff.
		if !strictEqual(prior[k], v) {
			diff[k] = v
		}
	}

	if len(diff) == 0 {
		s.mu.Unlock()
		return prior
	}

	next := make(State, len(prior)+len(diff))
	for k, v := range prior {
		next[k] = v
	}
	for k, v := range diff {
		next[k] = v
	}
	s.state = next
	s.version++
	s.mu.Unlock()

	s.dispatch(diff, prior)
	return next
}

// dispatch notifies all subscribers of an effective update.
// Uses copy-before-notify so listeners can subscribe, unsubscribe, or call
// Set again without invalidating iteration. Listeners added during dispatch
// are not part of the current pass; listeners removed during dispatch still
// fire.
func (s *Store) dispatch(diff Diff, prior State) {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, l := range subs {
		l.OnChange(diff, prior)
	}
}

// Subscribe adds a listener to the registry if absent.
// Re-subscribing an already-present listener is a no-op; registration order
// determines dispatch order.
func (s *Store) Subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// Unsubscribe removes a listener from the registry if present.
// Unsubscribing an absent listener is a no-op. The remaining listeners keep
// their relative registration order.
func (s *Store) Unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
