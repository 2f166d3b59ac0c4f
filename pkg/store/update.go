package store

// Update is the argument to Set: either a literal partial state or an
// updater function that derives the partial state from the current state.
// The zero Update resolves to an empty partial, which makes Set a no-op.
type Update struct {
	values  Partial
	updater func(State) Partial
}

// Values builds an Update from a literal partial state.
//
// Example:
//
//	s.Set(store.Values(store.Partial{"count": 1}))
func Values(p Partial) Update {
	return Update{values: p}
}

// Updater builds an Update from a function of the current state.
// The function receives the live state at the moment Set runs and must
// treat it as read-only. It must not call back into the store.
//
// Example:
//
//	s.Set(store.Updater(func(cur store.State) store.Partial {
//	    return store.Partial{"count": cur["count"].(int) + 1}
//	}))
func Updater(fn func(State) Partial) Update {
	return Update{updater: fn}
}

// resolve produces the partial state for the given current state.
func (u Update) resolve(current State) Partial {
	if u.updater != nil {
		return u.updater(current)
	}
	return u.values
}
