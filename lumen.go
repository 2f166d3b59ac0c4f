// Package lumen is an observable key-value state container for reactive UIs.
//
// A store holds one flat state value. Updates flow through Set, which
// detects the keys that actually changed and synchronously notifies
// listeners with the diff and the prior state. Consumers read through a
// tracking accessor so that only changes to keys they have read trigger a
// re-render; middlewares run side effects on every change.
//
//	s := lumen.NewStore(lumen.State{"count": 0})
//	s.Set(lumen.Values(lumen.Partial{"count": 1}))
//
//	view := lumen.UseStore(host, s)
//	count := view.Get("count")
//
//	lumen.Apply(s, middleware.Logging(nil))
//
// The heavy lifting lives in pkg/store, pkg/track and pkg/middleware; this
// package re-exports the primary surface so application code can use a
// single import.
package lumen

import (
	"github.com/lumen-dev/lumen/pkg/middleware"
	"github.com/lumen-dev/lumen/pkg/store"
	"github.com/lumen-dev/lumen/pkg/track"
)

// State is an alias for store.State.
type State = store.State

// Partial is an alias for store.Partial.
type Partial = store.Partial

// Diff is an alias for store.Diff.
type Diff = store.Diff

// Store is an alias for store.Store.
type Store = store.Store

// Listener is an alias for store.Listener.
type Listener = store.Listener

// Update is an alias for store.Update.
type Update = store.Update

// View is an alias for track.View.
type View = track.View

// Host is an alias for track.Host.
type Host = track.Host

// Middleware is an alias for middleware.Middleware.
type Middleware = middleware.Middleware

// NewStore constructs a store with the given initial state.
func NewStore(initial State) *Store {
	return store.New(initial)
}

// Values builds an Update from a literal partial state.
func Values(p Partial) Update {
	return store.Values(p)
}

// Updater builds an Update from a function of the current state.
func Updater(fn func(State) Partial) Update {
	return store.Updater(fn)
}

// ListenerFunc wraps a function as a Listener with a fresh identity.
func ListenerFunc(fn func(diff Diff, prior State)) Listener {
	return store.ListenerFunc(fn)
}

// UseStore returns a tracking accessor for the consumer currently being
// rendered by the host.
func UseStore(h Host, s *Store) *View {
	return track.UseStore(h, s)
}

// Apply registers middlewares with the store.
func Apply(s *Store, mws ...Middleware) *middleware.Pipeline {
	return middleware.Apply(s, mws...)
}
