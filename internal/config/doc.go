// Package config loads, normalizes, and validates storesync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STORESYNC_API_TOKEN. The Config type centralizes every knob the daemon and
// CLI need: where the durable queue lives, which storage backend backs it, how
// the remote backend is reached, and how the replay engine reports progress.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
