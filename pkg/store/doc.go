// Package store implements the observable state container at the core of
// Lumen.
//
// A Store owns a single flat State value. Updates go through Set, which
// computes the set of keys that actually changed (the Diff), replaces the
// state wholesale with a shallow merge, and synchronously notifies every
// subscribed Listener with the diff and the state as it was before the
// update.
//
// # Change Detection
//
// Change detection is shallow and strict: a key is part of the diff only
// when its proposed value is not identical to the current one. Comparable
// values are compared with ==; maps, slices and funcs are compared by
// reference identity, never structurally. An update whose diff is empty is
// a no-op: the state reference is unchanged and no listener runs.
//
// # Dispatch
//
// Listeners are invoked in registration order, synchronously, on the
// goroutine that called Set. Dispatch iterates over a snapshot of the
// registry, so subscribing, unsubscribing, or calling Set again from inside
// a listener never corrupts iteration; a nested Set runs its own dispatch
// to completion before the outer dispatch resumes. A panicking listener
// propagates to the Set caller and aborts the remaining notifications of
// that pass -- dispatch is not guarded.
package store
