// Package api defines wire-format types and the service layer behind the
// management HTTP API and the CLI. It translates queue, status, and cache
// models into transport-friendly DTOs so consumers never couple to internal
// types.
//
// # Key Types
//
// QueueItem: transport representation of a queued mutation with a derived
// state (pending, retrying, failed) and its age.
//
// StatusResponse: sync status snapshot, queue counts, and actor availability.
//
// SyncService: the operations both surfaces expose (status, list, describe,
// remove, clear failed, process, submit, cache generations).
//
// Client: a fasthttp client for a running daemon's API with the same method
// set as SyncService, so the CLI can use either.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Mutation params are passed through as json.RawMessage to avoid
// double-encoding.
package api
