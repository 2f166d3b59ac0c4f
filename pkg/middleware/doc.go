// Package middleware runs side-effect callbacks on every store change.
//
// Apply registers a single listener with a store. On each effective update
// it snapshots the post-update state and runs every middleware concurrently
// on their own goroutines; a join goroutine off the update path waits for
// all of them to settle and reports any aggregated failure through the
// pipeline's error handler. Set never waits for middleware.
//
// Built-in middlewares cover logging (log/slog), Prometheus metrics,
// OpenTelemetry tracing, and S3 state snapshots.
package middleware
