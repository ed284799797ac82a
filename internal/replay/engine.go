package replay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"storesync/internal/cache"
	"storesync/internal/logging"
	"storesync/internal/mutation"
	"storesync/internal/queue"
	"storesync/internal/remote"
	"storesync/internal/syncstatus"
)

// MaxRetries is the number of transient failures an entry may accumulate.
// The attempt after the last one marks it failed instead of calling.
const MaxRetries = 3

const exhaustedMessage = "retry limit reached"

// Result summarizes one drain pass.
type Result struct {
	// NoActor is set when the pass did nothing because no actor was available.
	NoActor bool `json:"noActor,omitempty"`
	// Skipped is set by Runner when another process held the drain lock.
	Skipped bool `json:"skipped,omitempty"`
	// Aborted is set when the context ended mid-pass.
	Aborted   bool `json:"aborted,omitempty"`
	Snapshot  int  `json:"snapshot"`
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	// Retryable counts transient failures recorded this pass.
	Retryable int `json:"retryable"`
	// Permanent counts entries failed before the pass, exhausted this pass,
	// and classified permanent this pass.
	Permanent int `json:"permanent"`
	Remaining int `json:"remaining"`
}

// Dispatcher executes one queued mutation.
type Dispatcher func(ctx context.Context, actor remote.Actor, m queue.Mutation) error

// Engine runs drain passes. Passes are serialized.
type Engine struct {
	mu          sync.Mutex
	conn        *remote.Connection
	queue       *queue.Queue
	cache       cache.Invalidator
	status      *syncstatus.Reporter
	dispatch    Dispatcher
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCallTimeout bounds each remote call. Zero waits indefinitely.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// WithDispatcher replaces the dispatch table lookup.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) {
		if d != nil {
			e.dispatch = d
		}
	}
}

// WithLogger routes engine logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logging.NewComponentLogger(logger, "replay") }
}

// NewEngine wires an engine. invalidator and reporter may be nil.
func NewEngine(conn *remote.Connection, q *queue.Queue, invalidator cache.Invalidator, reporter *syncstatus.Reporter, opts ...Option) *Engine {
	e := &Engine{
		conn:     conn,
		queue:    q,
		cache:    invalidator,
		status:   reporter,
		dispatch: mutation.Dispatch,
		logger:   logging.NewComponentLogger(nil, "replay"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessQueue runs one drain pass. Errors never escape; the outcome is in
// the Result and on the status reporter.
func (e *Engine) ProcessQueue(ctx context.Context) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	actor, ok := e.conn.Actor()
	if !ok {
		e.logger.Debug("drain skipped; actor unavailable")
		return Result{NoActor: true}
	}

	snapshot := e.queue.List()
	res := Result{Snapshot: len(snapshot)}
	if len(snapshot) == 0 {
		if e.status != nil {
			e.status.Idle()
		}
		return res
	}
	if e.status != nil {
		e.status.Syncing(len(snapshot))
	}
	e.logger.Info("drain pass started", logging.Int("queue_length", len(snapshot)))

	for _, m := range snapshot {
		if ctx.Err() != nil {
			res.Aborted = true
			break
		}
		if e.step(ctx, actor, m, &res) {
			res.Aborted = true
			break
		}
	}

	remaining := e.queue.List()
	res.Remaining = len(remaining)
	failed := 0
	for _, m := range remaining {
		if m.Failed {
			failed++
		}
	}
	if e.status != nil {
		e.status.Finish(syncstatus.Summary{
			Remaining:      len(remaining),
			FailedCount:    failed,
			PermanentCount: res.Permanent,
			RetryableCount: res.Retryable,
		})
	}
	e.logger.Info("drain pass finished",
		logging.Int("succeeded", res.Succeeded),
		logging.Int("retryable", res.Retryable),
		logging.Int("permanent", res.Permanent),
		logging.Int("remaining", res.Remaining),
		logging.Bool("aborted", res.Aborted),
	)
	return res
}

// step handles one snapshot entry. It reports true when the pass must stop.
func (e *Engine) step(ctx context.Context, actor remote.Actor, m queue.Mutation, res *Result) bool {
	logger := e.logger.With(
		logging.String(logging.FieldMutationID, m.ID),
		logging.String(logging.FieldMutationType, string(m.Type)),
	)

	if m.Failed {
		res.Permanent++
		return false
	}
	if m.RetryCount >= MaxRetries {
		msg := m.LastError
		if msg == "" {
			msg = exhaustedMessage
		}
		e.record(logger, e.queue.MarkAsFailed(m.ID, msg))
		res.Permanent++
		logger.Warn("mutation exhausted retries",
			logging.Int("retry_count", m.RetryCount),
			logging.String(logging.FieldEventType, "mutation_exhausted"),
		)
		return false
	}

	res.Attempted++
	err := e.call(ctx, actor, m)
	if err == nil {
		e.record(logger, e.queue.Dequeue(m.ID))
		if e.cache != nil {
			e.cache.Invalidate(mutation.Invalidates(m.Type)...)
		}
		res.Succeeded++
		logger.Info("mutation replayed")
		return false
	}
	if ctx.Err() != nil {
		logger.Info("drain aborted; in-flight mutation left untouched", logging.Error(err))
		return true
	}

	msg := err.Error()
	switch Classify(err) {
	case Permanent:
		e.record(logger, e.queue.MarkAsFailed(m.ID, msg))
		res.Permanent++
		logging.WarnWithContext(logger, "mutation failed permanently", "mutation_failed",
			logging.String(logging.FieldErrorHint, "remove the entry or fix permissions and resubmit"),
			logging.String(logging.FieldImpact, "this change will not be applied"),
			logging.Error(err),
		)
	default:
		e.record(logger, e.queue.IncrementRetryCount(m.ID, msg))
		res.Retryable++
		logger.Info("mutation will be retried",
			logging.Int("retry_count", m.RetryCount+1),
			logging.Error(err),
		)
	}
	return false
}

func (e *Engine) call(ctx context.Context, actor remote.Actor, m queue.Mutation) error {
	if e.callTimeout <= 0 {
		return e.dispatch(ctx, actor, m)
	}
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	err := e.dispatch(callCtx, actor, m)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &remote.Error{Code: remote.KindTimeout, Message: "call timed out after " + e.callTimeout.String(), Err: err}
	}
	return err
}

func (e *Engine) record(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.ErrorWithContext(logger, "queue update failed", "queue_write_failed",
		logging.String(logging.FieldErrorHint, "check storage quota and data directory permissions"),
		logging.Error(err),
	)
}
