// Package syncstatus derives the coarse sync state shown to users from the
// outcome of replay drain passes.
//
// States move idle -> syncing -> synced|error. synced reverts to idle on its
// own after a display delay; error stays until a later pass clears it.
package syncstatus

import (
	"fmt"
	"sync"
	"time"
)

// Status is the coarse sync state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

// Snapshot is the status surface.
type Snapshot struct {
	Status Status `json:"status"`
	// QueueLength is the pre-pass length while syncing and the remaining
	// length afterwards.
	QueueLength int `json:"queueLength"`
	// FailedCount is the number of queued entries marked failed.
	FailedCount int `json:"failedCount"`
	// PermanentCount and RetryableCount are the failures recorded by the
	// most recent pass.
	PermanentCount int       `json:"permanentCount"`
	RetryableCount int       `json:"retryableCount"`
	LastError      *string   `json:"lastError"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Summary is what a finished drain pass reports.
type Summary struct {
	Remaining      int
	FailedCount    int
	PermanentCount int
	RetryableCount int
}

// Reporter holds the current snapshot.
type Reporter struct {
	mu          sync.Mutex
	snap        Snapshot
	generation  uint64
	display     time.Duration
	now         func() time.Time
	subscribers map[chan Snapshot]struct{}
}

// NewReporter returns an idle reporter. display is how long synced is shown.
func NewReporter(display time.Duration) *Reporter {
	r := &Reporter{
		display:     display,
		now:         time.Now,
		subscribers: make(map[chan Snapshot]struct{}),
	}
	r.snap = Snapshot{Status: StatusIdle, UpdatedAt: r.now()}
	return r
}

// Snapshot returns the current state.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Idle records that nothing is pending.
func (r *Reporter) Idle() {
	r.set(Snapshot{Status: StatusIdle})
}

// Syncing records the start of a pass over queueLength entries.
func (r *Reporter) Syncing(queueLength int) {
	r.set(Snapshot{Status: StatusSyncing, QueueLength: queueLength})
}

// Finish records the outcome of a pass.
func (r *Reporter) Finish(s Summary) {
	if s.Remaining == 0 {
		gen := r.set(Snapshot{Status: StatusSynced})
		r.scheduleRevert(gen)
		return
	}
	var msg string
	if s.FailedCount > 0 {
		msg = fmt.Sprintf("%d %s failed permanently and must be removed manually",
			s.FailedCount, plural(s.FailedCount))
	} else if s.RetryableCount > 0 {
		msg = fmt.Sprintf("%d %s failed and will be retried on the next sync",
			s.RetryableCount, plural(s.RetryableCount))
	} else {
		// Interrupted pass: nothing failed, entries were left untried.
		msg = fmt.Sprintf("%d %s still queued and will be retried on the next sync",
			s.Remaining, plural(s.Remaining))
	}
	r.set(Snapshot{
		Status:         StatusError,
		QueueLength:    s.Remaining,
		FailedCount:    s.FailedCount,
		PermanentCount: s.PermanentCount,
		RetryableCount: s.RetryableCount,
		LastError:      &msg,
	})
}

func plural(n int) string {
	if n == 1 {
		return "change"
	}
	return "changes"
}

func (r *Reporter) scheduleRevert(gen uint64) {
	if r.display <= 0 {
		r.revert(gen)
		return
	}
	time.AfterFunc(r.display, func() { r.revert(gen) })
}

// revert moves synced to idle unless another transition happened since.
func (r *Reporter) revert(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen || r.snap.Status != StatusSynced {
		return
	}
	r.setLocked(Snapshot{Status: StatusIdle})
}

func (r *Reporter) set(s Snapshot) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLocked(s)
}

func (r *Reporter) setLocked(s Snapshot) uint64 {
	s.UpdatedAt = r.now()
	r.generation++
	gen := r.generation
	r.snap = s
	for ch := range r.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
	return gen
}

// Subscribe delivers every transition until stop is called. Slow
// subscribers miss transitions.
func (r *Reporter) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Snapshot, buffer)
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
