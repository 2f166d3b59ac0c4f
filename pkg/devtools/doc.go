// Package devtools exposes a read-only HTTP inspector for a store.
//
// The handler serves a JSON snapshot of the live state, a WebSocket feed of
// change events, and optionally a Prometheus metrics endpoint. The feed is
// observation-only: clients cannot write through it, so it does not
// synchronize state across processes.
//
//	dt := devtools.New(s, devtools.WithMetrics())
//	defer dt.Close()
//	http.ListenAndServe(":6360", dt.Handler())
//
// Routes:
//
//	GET /state    current state and version as JSON
//	GET /stream   WebSocket feed of {seq, diff, state} events
//	GET /metrics  Prometheus metrics (when enabled)
package devtools
