// Package daemon coordinates the long-running storesync process.
//
// It wires storage, the mutation queue, the remote client and health prober,
// the replay runner, the status reporter, and the cache registry into a single
// lifecycle with flock-based locking to prevent multiple instances. The
// management HTTP API is served from here.
//
// Keep orchestration logic here: queue semantics, dispatch, and replay live in
// their own packages while the daemon focuses on startup, shutdown, and wiring.
package daemon
