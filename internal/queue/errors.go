package queue

import "errors"

var (
	// ErrUnknownType is returned when enqueueing a type outside the closed set.
	ErrUnknownType = errors.New("unknown mutation type")
	// ErrNotPersisted wraps storage failures. The change was not written and
	// will not be visible on the next read.
	ErrNotPersisted = errors.New("queue change not persisted")
)
