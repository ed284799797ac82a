package mutation

import (
	"context"
	"fmt"
	"log/slog"

	"storesync/internal/cache"
	"storesync/internal/logging"
	"storesync/internal/queue"
	"storesync/internal/remote"
)

// Outcome describes how a submission was handled.
type Outcome struct {
	// Queued is true when the actor was unavailable and the payload was
	// persisted for replay.
	Queued     bool   `json:"queued"`
	MutationID string `json:"mutationId,omitempty"`
}

// Submitter calls the remote actor directly when it is available and falls
// back to the queue when it is not.
type Submitter struct {
	conn   *remote.Connection
	queue  *queue.Queue
	cache  cache.Invalidator
	logger *slog.Logger
}

// NewSubmitter wires a submitter. invalidator may be nil.
func NewSubmitter(conn *remote.Connection, q *queue.Queue, invalidator cache.Invalidator, logger *slog.Logger) *Submitter {
	return &Submitter{
		conn:   conn,
		queue:  q,
		cache:  invalidator,
		logger: logging.NewComponentLogger(logger, "submitter"),
	}
}

// Submit validates p, then either executes it or enqueues it. Errors from a
// direct call are returned unchanged; nothing is queued in that case.
func (s *Submitter) Submit(ctx context.Context, p Payload) (Outcome, error) {
	if err := Validate(p); err != nil {
		return Outcome{}, err
	}

	actor, ok := s.conn.Actor()
	if !ok {
		id, err := s.queue.Enqueue(p.Kind(), p)
		if err != nil {
			return Outcome{}, fmt.Errorf("queue %s: %w", p.Kind(), err)
		}
		s.logger.Info("actor unavailable; mutation deferred",
			logging.String(logging.FieldMutationID, id),
			logging.String(logging.FieldMutationType, string(p.Kind())),
		)
		return Outcome{Queued: true, MutationID: id}, nil
	}

	if err := Call(ctx, actor, p); err != nil {
		return Outcome{}, err
	}
	if s.cache != nil {
		s.cache.Invalidate(Invalidates(p.Kind())...)
	}
	return Outcome{}, nil
}
