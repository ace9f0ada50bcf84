// Package daemon coordinates the long-running reelbot process.
//
// It holds the queue lock for its whole lifetime so no other process writes
// the queue underneath it, serves the Slack Events endpoint together with a
// small read-only HTTP API, and hands accepted events to the router on
// tracked goroutines. Shutdown stops the listener first, then waits (bounded
// by server.shutdown_timeout_seconds) for in-flight handlers so pending queue
// flushes complete before the caller closes the store.
//
// Keep orchestration here; command semantics live in the router.
package daemon
