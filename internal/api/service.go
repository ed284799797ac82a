package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storesync/internal/cache"
	"storesync/internal/mutation"
	"storesync/internal/queue"
	"storesync/internal/remote"
	"storesync/internal/replay"
	"storesync/internal/syncstatus"
)

var (
	// ErrUnavailable reports an operation whose backing component is not wired.
	ErrUnavailable = errors.New("service unavailable")
	// ErrBadRequest marks caller mistakes such as unknown mutation types.
	ErrBadRequest = errors.New("bad request")
)

// Service is the operation set shared by the HTTP API and the CLI.
type Service interface {
	Status(ctx context.Context) (StatusResponse, error)
	List(ctx context.Context) ([]QueueItem, error)
	Describe(ctx context.Context, id string) (*QueueItem, error)
	Remove(ctx context.Context, id string) (bool, error)
	ClearFailed(ctx context.Context) (int, error)
	Process(ctx context.Context) (ProcessResponse, error)
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	Cache(ctx context.Context) ([]cache.Entry, error)
}

// Drainer runs one drain pass. *replay.Runner satisfies it.
type Drainer interface {
	Drain(ctx context.Context) replay.Result
}

// SyncDeps are the components a SyncService reads and drives.
type SyncDeps struct {
	Queue     *queue.Queue
	Status    *syncstatus.Reporter
	Cache     *cache.Registry
	Conn      *remote.Connection
	Drainer   Drainer
	Submitter *mutation.Submitter
}

// SyncService implements Service over in-process components.
type SyncService struct {
	deps SyncDeps
	now  func() time.Time
}

// NewSyncService constructs a service around deps.
func NewSyncService(deps SyncDeps) *SyncService {
	return &SyncService{deps: deps, now: time.Now}
}

func (s *SyncService) Status(context.Context) (StatusResponse, error) {
	if s.deps.Queue == nil || s.deps.Status == nil {
		return StatusResponse{}, ErrUnavailable
	}
	resp := StatusResponse{
		Sync:  FromSnapshot(s.deps.Status.Snapshot()),
		Queue: FromStats(s.deps.Queue.Stats()),
	}
	if s.deps.Conn != nil {
		resp.Online = s.deps.Conn.Available()
	}
	return resp, nil
}

func (s *SyncService) List(context.Context) ([]QueueItem, error) {
	if s.deps.Queue == nil {
		return nil, ErrUnavailable
	}
	return FromMutations(s.deps.Queue.List(), s.now()), nil
}

// Describe returns nil without error when id is not queued.
func (s *SyncService) Describe(_ context.Context, id string) (*QueueItem, error) {
	if s.deps.Queue == nil {
		return nil, ErrUnavailable
	}
	m, ok := s.deps.Queue.Get(id)
	if !ok {
		return nil, nil
	}
	dto := FromMutation(m, s.now())
	return &dto, nil
}

func (s *SyncService) Remove(_ context.Context, id string) (bool, error) {
	if s.deps.Queue == nil {
		return false, ErrUnavailable
	}
	if _, ok := s.deps.Queue.Get(id); !ok {
		return false, nil
	}
	if err := s.deps.Queue.Dequeue(id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SyncService) ClearFailed(context.Context) (int, error) {
	if s.deps.Queue == nil {
		return 0, ErrUnavailable
	}
	return s.deps.Queue.ClearFailed()
}

// Process runs a drain pass now and waits for it.
func (s *SyncService) Process(ctx context.Context) (ProcessResponse, error) {
	if s.deps.Drainer == nil {
		return ProcessResponse{}, ErrUnavailable
	}
	res := s.deps.Drainer.Drain(ctx)
	resp := ProcessResponse{Result: res}
	if s.deps.Status != nil {
		resp.Sync = FromSnapshot(s.deps.Status.Snapshot())
	}
	if s.deps.Queue != nil {
		resp.Queue = FromStats(s.deps.Queue.Stats())
	}
	return resp, nil
}

func (s *SyncService) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	if s.deps.Submitter == nil {
		return SubmitResponse{}, ErrUnavailable
	}
	kind, ok := queue.ParseType(req.Type)
	if !ok {
		return SubmitResponse{}, fmt.Errorf("%w: unknown mutation type %q", ErrBadRequest, req.Type)
	}
	payload, err := mutation.FromParams(kind, req.Params)
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	out, err := s.deps.Submitter.Submit(ctx, payload)
	if err != nil {
		return SubmitResponse{}, err
	}
	return SubmitResponse{Queued: out.Queued, MutationID: out.MutationID}, nil
}

func (s *SyncService) Cache(context.Context) ([]cache.Entry, error) {
	if s.deps.Cache == nil {
		return nil, ErrUnavailable
	}
	return s.deps.Cache.Snapshot(), nil
}
