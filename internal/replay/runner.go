package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"

	"storesync/internal/logging"
	"storesync/internal/remote"
)

// TryLocker is a non-blocking cross-process lock. *flock.Flock satisfies it.
type TryLocker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Runner schedules drain passes.
type Runner struct {
	mu      sync.Mutex
	engine  *Engine
	conn    *remote.Connection
	lock    TryLocker
	trigger chan struct{}
	logger  *slog.Logger
}

// NewRunner returns a runner whose passes hold the drain lock at lockPath.
// An empty lockPath disables cross-process exclusion.
func NewRunner(engine *Engine, conn *remote.Connection, lockPath string, logger *slog.Logger) *Runner {
	r := &Runner{
		engine:  engine,
		conn:    conn,
		trigger: make(chan struct{}, 1),
		logger:  logging.NewComponentLogger(logger, "replay-runner"),
	}
	if lockPath != "" {
		r.lock = flock.New(lockPath)
	}
	return r
}

// Trigger requests a pass. Requests made while one is pending coalesce.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run drains on availability transitions and triggers until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	available, stop := r.conn.Subscribe()
	defer stop()

	if r.conn.Available() {
		r.Drain(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-available:
			r.logger.Info("actor became available; draining queue",
				logging.String(logging.FieldEventType, "drain_trigger_reconnect"))
			r.Drain(ctx)
		case <-r.trigger:
			r.Drain(ctx)
		}
	}
}

// Drain runs one pass now under the drain lock.
func (r *Runner) Drain(ctx context.Context) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lock != nil {
		ok, err := r.lock.TryLock()
		if err != nil {
			logging.WarnWithContext(r.logger, "drain lock unavailable", "drain_lock_error",
				logging.Error(fmt.Errorf("try drain lock: %w", err)))
			return Result{Skipped: true}
		}
		if !ok {
			r.logger.Info("another process is draining the queue; pass skipped")
			return Result{Skipped: true}
		}
		defer func() {
			if err := r.lock.Unlock(); err != nil {
				r.logger.Warn("release drain lock failed", logging.Error(err))
			}
		}()
	}
	return r.engine.ProcessQueue(ctx)
}
