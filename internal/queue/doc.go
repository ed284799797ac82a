// Package queue persists pending write operations (mutations) that could not
// reach the storefront backend and exposes the read-modify-write helpers the
// replay engine drives.
//
// The whole queue lives under one namespaced key in the storage layer, tagged
// with a schema version; a version bump discards the persisted queue instead
// of migrating it. Entries keep insertion order, which is the replay order.
//
// Every mutating operation re-reads the persisted list, applies its change,
// and writes the full list back while holding an in-process mutex and a file
// lock, so several storesync processes sharing a data directory serialize
// their writes instead of losing updates.
package queue
