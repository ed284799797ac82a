package api

import (
	"encoding/json"

	"storesync/internal/cache"
	"storesync/internal/replay"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Derived queue item states.
const (
	StatePending  = "pending"
	StateRetrying = "retrying"
	StateFailed   = "failed"
)

// QueueItem describes a queued mutation in a transport-friendly format.
type QueueItem struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	State      string          `json:"state"`
	Params     json.RawMessage `json:"params,omitempty"`
	RetryCount int             `json:"retryCount"`
	MaxRetries int             `json:"maxRetries"`
	LastError  string          `json:"lastError,omitempty"`
	Failed     bool            `json:"failed"`
	CreatedAt  string          `json:"createdAt,omitempty"`
	AgeSeconds int64           `json:"ageSeconds"`
}

// QueueListResponse wraps queue listings.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single item lookup.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// QueueStats counts queue entries by derived state.
type QueueStats struct {
	Total    int    `json:"total"`
	Pending  int    `json:"pending"`
	Retrying int    `json:"retrying"`
	Failed   int    `json:"failed"`
	Oldest   string `json:"oldest,omitempty"`
}

// SyncStatus is the status surface.
type SyncStatus struct {
	Status         string  `json:"status"`
	QueueLength    int     `json:"queueLength"`
	FailedCount    int     `json:"failedCount"`
	PermanentCount int     `json:"permanentCount"`
	RetryableCount int     `json:"retryableCount"`
	LastError      *string `json:"lastError"`
	UpdatedAt      string  `json:"updatedAt,omitempty"`
}

// StatusResponse aggregates sync status, queue counts, and availability.
type StatusResponse struct {
	Online bool       `json:"online"`
	Sync   SyncStatus `json:"sync"`
	Queue  QueueStats `json:"queue"`
}

// RemoveResponse reports whether an entry was removed.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearResponse reports how many entries were cleared.
type ClearResponse struct {
	Removed int `json:"removed"`
}

// ProcessResponse reports a drain pass. Queue is read after the pass, so it
// is current even when the pass did nothing.
type ProcessResponse struct {
	Result replay.Result `json:"result"`
	Sync   SyncStatus    `json:"sync"`
	Queue  QueueStats    `json:"queue"`
}

// SubmitRequest carries a mutation in flat key=value form.
type SubmitRequest struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params"`
}

// SubmitResponse reports how a submission was handled.
type SubmitResponse struct {
	Queued     bool   `json:"queued"`
	MutationID string `json:"mutationId,omitempty"`
}

// CacheResponse lists invalidation generations.
type CacheResponse struct {
	Entries []cache.Entry `json:"entries"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
