// Package mutation defines the payload of every queueable write and the
// dispatch table that maps a queue.Type to its remote call, native argument
// reconstruction, and the cache views it invalidates.
//
// Payloads hold only JSON-safe values: 64-bit identifiers and principals are
// strings. Reconstruction happens when a payload is bound to an actor, both
// for direct calls and for replay, so a malformed payload fails the same way
// on either path.
package mutation
