package track

import "sync/atomic"

// Trigger is the host framework's re-render primitive.
// Invalidate schedules a re-render of the consumer that owns the trigger.
type Trigger interface {
	Invalidate()
}

// TriggerFunc adapts a plain function to the Trigger interface.
type TriggerFunc func()

func (f TriggerFunc) Invalidate() { f() }

// Version is a monotonically increasing counter usable as a Trigger.
// A host compares the counter across frames to decide whether a consumer
// needs another render pass.
type Version struct {
	n atomic.Uint64
}

// Invalidate advances the counter.
func (v *Version) Invalidate() {
	v.n.Add(1)
}

// Current returns the counter value.
func (v *Version) Current() uint64 {
	return v.n.Load()
}
