// Package track bridges store updates to a UI framework's re-render signal.
//
// A Consumer represents one rendering unit. Reads go through its View, a
// tracking accessor that records every key read into the consumer's read
// set and returns the store's live value at the moment of the read. When
// the store changes, the consumer re-renders only if the diff touches a key
// it has ever read.
//
// The read set is monotonic: a key read in any past render pass remains a
// subscription even if later passes stop reading it. This trades potential
// over-notification for implementation simplicity; the set is discarded
// only when the consumer unmounts.
//
// UseStore binds a Consumer to a host rendering framework through the Host
// interface: a persistent-across-renders instance cell, an effect hook that
// runs once per mount/unmount cycle, and a re-render trigger.
package track
