// Package remote models the storefront backend actor that state-changing
// operations are ultimately executed against.
//
// Actor is a closed, typed capability set: one method per mutation kind.
// Backends that cannot serve an operation embed Unsupported, which answers
// with ErrUnsupported instead of leaving the capability to a runtime probe.
//
// Connection tracks whether an actor handle is currently available and
// notifies subscribers when it becomes available. Prober keeps a Connection
// current by polling the backend health endpoint through Client, the fasthttp
// implementation of Actor.
package remote
