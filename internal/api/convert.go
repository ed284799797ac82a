package api

import (
	"time"

	"storesync/internal/queue"
	"storesync/internal/replay"
	"storesync/internal/syncstatus"
)

// StateOf derives the display state of a mutation.
func StateOf(m queue.Mutation) string {
	switch {
	case m.Failed:
		return StateFailed
	case m.RetryCount > 0:
		return StateRetrying
	default:
		return StatePending
	}
}

// FromMutation converts a queued mutation to its API representation.
func FromMutation(m queue.Mutation, now time.Time) QueueItem {
	dto := QueueItem{
		ID:         m.ID,
		Type:       string(m.Type),
		State:      StateOf(m),
		Params:     m.Params,
		RetryCount: m.RetryCount,
		MaxRetries: replay.MaxRetries,
		LastError:  m.LastError,
		Failed:     m.Failed,
		AgeSeconds: int64(m.Age(now) / time.Second),
	}
	if !m.Timestamp.IsZero() {
		dto.CreatedAt = m.Timestamp.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromMutations converts a slice, preserving order.
func FromMutations(items []queue.Mutation, now time.Time) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, m := range items {
		out = append(out, FromMutation(m, now))
	}
	return out
}

// FromStats converts queue statistics.
func FromStats(s queue.Stats) QueueStats {
	dto := QueueStats{
		Total:    s.Total,
		Pending:  s.Pending,
		Retrying: s.Retrying,
		Failed:   s.Failed,
	}
	if !s.Oldest.IsZero() {
		dto.Oldest = s.Oldest.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromSnapshot converts a status snapshot.
func FromSnapshot(s syncstatus.Snapshot) SyncStatus {
	dto := SyncStatus{
		Status:         string(s.Status),
		QueueLength:    s.QueueLength,
		FailedCount:    s.FailedCount,
		PermanentCount: s.PermanentCount,
		RetryableCount: s.RetryableCount,
		LastError:      s.LastError,
	}
	if !s.UpdatedAt.IsZero() {
		dto.UpdatedAt = s.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}
