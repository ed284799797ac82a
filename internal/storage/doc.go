// Package storage provides versioned, expiring key/value persistence over a
// synchronous byte-oriented Backend.
//
// Every value is wrapped in an Item envelope carrying a schema version, the
// creation time, and an optional expiry. Reads that find a mismatched version,
// an expired envelope, or undecodable bytes evict the key and report absence,
// so callers never observe stale or foreign data. Writes that hit the backend
// quota evict every expired entry in the namespace and retry once.
//
// Store operations are total: backend and decode failures are logged and
// folded into "absent" or a returned error, never a panic.
package storage
