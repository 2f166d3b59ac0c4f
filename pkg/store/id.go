package store

import "sync/atomic"

// globalIDCounter is the source of unique listener IDs.
// Using atomic operations ensures thread-safe ID generation without locks.
var globalIDCounter uint64

// NextListenerID returns the next unique listener ID.
// IDs are monotonically increasing and never reused. Packages that implement
// Listener outside of this package (trackers, middleware pipelines) draw
// their IDs from here so that registry deduplication stays correct.
func NextListenerID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
