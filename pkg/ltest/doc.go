// Package ltest provides test helpers for Lumen.
//
// Host is a reference implementation of the track.Host rendering boundary:
// it keeps hook cells stable across renders, runs mount effects after the
// render pass, runs teardowns on unmount, and counts invalidations with a
// version counter. Recorder is a store.Listener that captures every
// notification for assertions.
package ltest
