package track

import "github.com/lumen-dev/lumen/pkg/store"

// Host is the rendering framework boundary UseStore integrates with.
// The host supplies three primitives for the consumer being rendered:
//
//   - a persistent instance cell that survives re-renders (UseCell/SetCell),
//   - an effect hook whose setup runs on mount and whose returned teardown
//     runs on unmount (OnMount),
//   - a re-render trigger (Invalidate).
//
// The framework itself is external; ltest.Host provides a reference
// implementation for tests.
type Host interface {
	// UseCell returns the value stored for the current consumer,
	// or nil on the first render.
	UseCell() any

	// SetCell stores a value in the consumer's cell on first render.
	SetCell(v any)

	// OnMount registers an effect: setup runs once when the consumer
	// mounts and the teardown it returns runs once on unmount.
	OnMount(setup func() (teardown func()))

	// Invalidate schedules a re-render of the current consumer.
	Invalidate()
}

// UseStore returns a tracking accessor over the store for the consumer
// currently being rendered by the host.
//
// The first render allocates a Consumer into the host's cell and registers
// its mount/unmount lifecycle; subsequent renders reuse it. Re-renders
// triggered by store changes re-read through the returned View and may
// grow the consumer's read set further.
func UseStore(h Host, s *store.Store) *View {
	if cell := h.UseCell(); cell != nil {
		return cell.(*Consumer).View()
	}

	c := NewConsumer(s, TriggerFunc(h.Invalidate))
	h.SetCell(c)
	h.OnMount(func() func() {
		c.Mount()
		return c.Unmount
	})
	return c.View()
}
