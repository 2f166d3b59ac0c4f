package ltest

import "github.com/lumen-dev/lumen/pkg/track"

// Host is a minimal rendering host for driving consumers in tests.
// It implements track.Host. Not safe for concurrent renders; tests drive
// one render pass at a time.
type Host struct {
	slots   []any
	slotIdx int

	// pending holds effect setups queued during the current render.
	pending   []func() func()
	teardowns []func()

	version track.Version
	renders int
	mounted bool
}

// NewHost creates an unmounted host.
func NewHost() *Host {
	return &Host{}
}

// Render runs one render pass. Hook cells are replayed in call order, then
// any newly registered mount effects run after the pass completes.
func (h *Host) Render(fn func()) {
	h.slotIdx = 0
	fn()
	h.renders++

	pending := h.pending
	h.pending = nil
	for _, setup := range pending {
		h.mounted = true
		if td := setup(); td != nil {
			h.teardowns = append(h.teardowns, td)
		}
	}
}

// Unmount runs all registered teardowns in reverse order and resets the
// host's cells.
func (h *Host) Unmount() {
	for i := len(h.teardowns) - 1; i >= 0; i-- {
		h.teardowns[i]()
	}
	h.teardowns = nil
	h.slots = nil
	h.slotIdx = 0
	h.mounted = false
}

// UseCell implements track.Host.
func (h *Host) UseCell() any {
	idx := h.slotIdx
	h.slotIdx++
	if idx < len(h.slots) {
		return h.slots[idx]
	}
	return nil
}

// SetCell implements track.Host.
func (h *Host) SetCell(v any) {
	h.slots = append(h.slots, v)
}

// OnMount implements track.Host.
func (h *Host) OnMount(setup func() func()) {
	h.pending = append(h.pending, setup)
}

// Invalidate implements track.Host by advancing the version counter.
func (h *Host) Invalidate() {
	h.version.Invalidate()
}

// Version returns the number of invalidations so far.
func (h *Host) Version() uint64 {
	return h.version.Current()
}

// Renders returns the number of completed render passes.
func (h *Host) Renders() int {
	return h.renders
}

// Mounted reports whether any mount effect has run without being torn down.
func (h *Host) Mounted() bool {
	return h.mounted
}
