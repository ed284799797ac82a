package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"storesync/internal/config"
	"storesync/internal/logging"
	"storesync/internal/storage"
)

// Locker serializes writers across processes. *flock.Flock satisfies it.
type Locker interface {
	Lock() error
	Unlock() error
}

// Queue is the persisted, ordered list of pending mutations.
type Queue struct {
	mu      sync.Mutex
	store   *storage.Store
	key     string
	version int
	locker  Locker
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

// Option customizes a Queue.
type Option func(*Queue)

// WithLocker sets the cross-process lock held around each write.
func WithLocker(locker Locker) Option {
	return func(q *Queue) { q.locker = locker }
}

// WithClock overrides the clock used for mutation timestamps.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithIDGenerator overrides mutation id generation.
func WithIDGenerator(newID func() string) Option {
	return func(q *Queue) {
		if newID != nil {
			q.newID = newID
		}
	}
}

// WithLogger routes queue logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) { q.logger = logging.NewComponentLogger(logger, "queue") }
}

// New returns a queue persisted under key with the given schema version.
func New(store *storage.Store, key string, version int, opts ...Option) *Queue {
	q := &Queue{
		store:   store,
		key:     key,
		version: version,
		now:     time.Now,
		newID:   newMutationID,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Open builds the queue described by cfg over store, guarded by the queue file lock.
func Open(cfg *config.Config, store *storage.Store, logger *slog.Logger) *Queue {
	return New(store, cfg.Queue.Key, cfg.Queue.SchemaVersion,
		WithLocker(flock.New(cfg.QueueLockPath())),
		WithLogger(logger),
	)
}

// newMutationID returns a time-ordered random identifier.
func newMutationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// List returns the persisted mutations in insertion order.
func (q *Queue) List() []Mutation {
	items, _ := storage.Get[[]Mutation](q.store, q.key, q.version)
	return items
}

// Get returns the mutation with id.
func (q *Queue) Get(id string) (Mutation, bool) {
	for _, m := range q.List() {
		if m.ID == id {
			return m, true
		}
	}
	return Mutation{}, false
}

// Len returns the number of persisted mutations.
func (q *Queue) Len() int {
	return len(q.List())
}

// Enqueue appends a new mutation of type t and returns its id. params must be
// JSON-serializable.
func (q *Queue) Enqueue(t Type, params any) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode %s params: %w", t, err)
	}

	var id string
	err = q.update(func(items []Mutation) ([]Mutation, bool, error) {
		id, err = q.uniqueID(items)
		if err != nil {
			return nil, false, err
		}
		items = append(items, Mutation{
			ID:        id,
			Type:      t,
			Params:    raw,
			Timestamp: q.now().UTC(),
		})
		return items, true, nil
	})
	if err != nil {
		return "", err
	}
	q.logger.Info("mutation queued",
		logging.String(logging.FieldMutationID, id),
		logging.String(logging.FieldMutationType, string(t)),
	)
	return id, nil
}

func (q *Queue) uniqueID(items []Mutation) (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		id := q.newID()
		if id == "" {
			continue
		}
		taken := false
		for _, m := range items {
			if m.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("allocate mutation id: generator keeps returning ids in use")
}

// Dequeue removes the mutation with id. Absent ids are ignored.
func (q *Queue) Dequeue(id string) error {
	return q.update(func(items []Mutation) ([]Mutation, bool, error) {
		for i, m := range items {
			if m.ID == id {
				return append(items[:i], items[i+1:]...), true, nil
			}
		}
		return items, false, nil
	})
}

// IncrementRetryCount records a transient failure. Absent ids are ignored.
func (q *Queue) IncrementRetryCount(id, message string) error {
	return q.modify(id, func(m *Mutation) {
		m.RetryCount++
		m.LastError = message
	})
}

// MarkAsFailed permanently excludes the mutation from automatic replay.
func (q *Queue) MarkAsFailed(id, message string) error {
	return q.modify(id, func(m *Mutation) {
		m.Failed = true
		m.LastError = message
	})
}

// ClearFailed removes every failed mutation and returns how many were removed.
func (q *Queue) ClearFailed() (int, error) {
	removed := 0
	err := q.update(func(items []Mutation) ([]Mutation, bool, error) {
		kept := items[:0]
		for _, m := range items {
			if m.Failed {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		return kept, removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear removes every mutation and returns how many were removed.
func (q *Queue) Clear() (int, error) {
	removed := 0
	err := q.update(func(items []Mutation) ([]Mutation, bool, error) {
		removed = len(items)
		return nil, removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Stats summarizes the persisted queue.
func (q *Queue) Stats() Stats {
	var stats Stats
	for _, m := range q.List() {
		stats.Total++
		switch {
		case m.Failed:
			stats.Failed++
		case m.RetryCount > 0:
			stats.Retrying++
		default:
			stats.Pending++
		}
		if stats.Oldest.IsZero() || m.Timestamp.Before(stats.Oldest) {
			stats.Oldest = m.Timestamp
		}
	}
	return stats
}

func (q *Queue) modify(id string, fn func(*Mutation)) error {
	return q.update(func(items []Mutation) ([]Mutation, bool, error) {
		for i := range items {
			if items[i].ID == id {
				fn(&items[i])
				return items, true, nil
			}
		}
		return items, false, nil
	})
}

// update runs one read-modify-write cycle under both locks. fn reports whether
// it changed the list; unchanged lists are not rewritten.
func (q *Queue) update(fn func([]Mutation) ([]Mutation, bool, error)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.locker != nil {
		if err := q.locker.Lock(); err != nil {
			return fmt.Errorf("acquire queue lock: %w", err)
		}
		defer func() {
			if err := q.locker.Unlock(); err != nil {
				q.logger.Warn("release queue lock failed", logging.Error(err))
			}
		}()
	}

	items, _ := storage.Get[[]Mutation](q.store, q.key, q.version)
	next, changed, err := fn(items)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := storage.Set(q.store, q.key, next, storage.SetOptions{Version: q.version}); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}
	return nil
}
