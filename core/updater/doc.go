// Package updater drives the reconciliation engine, once or continuously.
//
// In continuous mode the loop performs an initial full sync (retried
// until it succeeds), subscribes to the inventory push feed, and
// coalesces bursts of change notifications through a debounce window
// into single sync cycles. The subscription hands events to the loop via
// a buffered channel; only the loop goroutine ever calls into the
// engine.
//
// Lifecycle: Idle -> Syncing -> Waiting -> Syncing -> ... -> Stopped.
package updater
