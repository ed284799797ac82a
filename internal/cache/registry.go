// Package cache tracks invalidation of client-side query views. Each view key
// carries a generation counter that increases every time a successful write
// makes the view stale; readers compare generations to decide when to refetch.
package cache

import (
	"slices"
	"sync"
	"time"
)

// Key names a cached query view.
type Key string

const (
	KeySavedArtifacts Key = "saved-artifacts"
	KeyMyOrders       Key = "my-orders"
	KeyAllOrders      Key = "all-orders"
	KeyProducts       Key = "products"
	KeyProduct        Key = "product"
	KeyAdmins         Key = "admins"
	KeyFeedback       Key = "feedback"
)

// Invalidator marks views stale.
type Invalidator interface {
	Invalidate(keys ...Key)
}

// Entry is the invalidation state of one key.
type Entry struct {
	Key           Key       `json:"key"`
	Generation    uint64    `json:"generation"`
	InvalidatedAt time.Time `json:"invalidatedAt"`
}

// Event is delivered to subscribers after each Invalidate call.
type Event struct {
	Keys []Key     `json:"keys"`
	At   time.Time `json:"at"`
}

// Registry is the in-process Invalidator.
type Registry struct {
	mu          sync.Mutex
	entries     map[Key]Entry
	subscribers map[chan Event]struct{}
	now         func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:     make(map[Key]Entry),
		subscribers: make(map[chan Event]struct{}),
		now:         time.Now,
	}
}

// Invalidate bumps the generation of every key once, even if repeated.
func (r *Registry) Invalidate(keys ...Key) {
	if len(keys) == 0 {
		return
	}
	r.mu.Lock()
	at := r.now().UTC()
	seen := make(map[Key]struct{}, len(keys))
	unique := make([]Key, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
		e := r.entries[k]
		e.Key = k
		e.Generation++
		e.InvalidatedAt = at
		r.entries[k] = e
	}
	event := Event{Keys: unique, At: at}
	for ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	r.mu.Unlock()
}

// Generation returns the number of times key has been invalidated.
func (r *Registry) Generation(key Key) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[key].Generation
}

// Snapshot returns every invalidated key sorted by name.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
	return out
}

// Subscribe delivers invalidation events until the returned stop function is
// called. Slow subscribers miss events rather than blocking writers.
func (r *Registry) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, ch)
			r.mu.Unlock()
			close(ch)
		})
	}
}
