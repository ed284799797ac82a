package api_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storesync/internal/api"
	"storesync/internal/cache"
	"storesync/internal/logging"
	"storesync/internal/mutation"
	"storesync/internal/queue"
	"storesync/internal/remote"
	"storesync/internal/replay"
	"storesync/internal/syncstatus"
	"storesync/internal/testsupport"
)

type serviceHarness struct {
	svc   *api.SyncService
	queue *queue.Queue
	conn  *remote.Connection
	cache *cache.Registry
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	q := testsupport.MustOpenQueue(t, cfg)
	conn := remote.NewConnection()
	reporter := syncstatus.NewReporter(time.Second)
	registry := cache.NewRegistry()
	engine := replay.NewEngine(conn, q, registry, reporter)
	return &serviceHarness{
		svc: api.NewSyncService(api.SyncDeps{
			Queue:     q,
			Status:    reporter,
			Cache:     registry,
			Conn:      conn,
			Drainer:   replay.NewRunner(engine, conn, "", logging.NewNop()),
			Submitter: mutation.NewSubmitter(conn, q, registry, logging.NewNop()),
		}),
		queue: q,
		conn:  conn,
		cache: registry,
	}
}

func (h *serviceHarness) enqueue(t *testing.T, p mutation.Payload) string {
	t.Helper()
	id, err := h.queue.Enqueue(p.Kind(), p)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return id
}

func TestServiceListDescribeRemove(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	first := h.enqueue(t, mutation.SaveArtifact{ArtifactID: "1"})
	second := h.enqueue(t, mutation.CreateFeedback{Message: "hi"})
	if err := h.queue.IncrementRetryCount(second, "network error"); err != nil {
		t.Fatalf("IncrementRetryCount failed: %v", err)
	}

	items, err := h.svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != first || items[0].State != api.StatePending {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].State != api.StateRetrying || items[1].LastError != "network error" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
	if items[1].MaxRetries != replay.MaxRetries {
		t.Fatalf("expected max retries %d, got %d", replay.MaxRetries, items[1].MaxRetries)
	}

	item, err := h.svc.Describe(ctx, second)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if item == nil || item.Type != "createFeedback" {
		t.Fatalf("unexpected item: %+v", item)
	}

	missing, err := h.svc.Describe(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil item for unknown id, got %+v (err=%v)", missing, err)
	}

	removed, err := h.svc.Remove(ctx, first)
	if err != nil || !removed {
		t.Fatalf("expected first removal to succeed, got removed=%v err=%v", removed, err)
	}
	removed, err = h.svc.Remove(ctx, first)
	if err != nil || removed {
		t.Fatalf("expected second removal to report false, got removed=%v err=%v", removed, err)
	}
}

func TestServiceStatusAndClearFailed(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	id := h.enqueue(t, mutation.RemoveAdminRole{Principal: "aaaaa-bbbbb"})
	if err := h.queue.MarkAsFailed(id, "forbidden"); err != nil {
		t.Fatalf("MarkAsFailed failed: %v", err)
	}
	h.enqueue(t, mutation.SaveArtifact{ArtifactID: "2"})

	status, err := h.svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Online {
		t.Fatal("expected offline without an actor")
	}
	if status.Queue.Total != 2 || status.Queue.Failed != 1 {
		t.Fatalf("unexpected queue stats: %+v", status.Queue)
	}
	if status.Sync.Status != string(syncstatus.StatusIdle) {
		t.Fatalf("expected idle status, got %q", status.Sync.Status)
	}

	n, err := h.svc.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if n != 1 || h.queue.Len() != 1 {
		t.Fatalf("expected 1 cleared and 1 remaining, got cleared=%d remaining=%d", n, h.queue.Len())
	}
}

func TestServiceSubmitQueuesOfflineAndAppliesOnline(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	out, err := h.svc.Submit(ctx, api.SubmitRequest{Type: "UPDATESTOCK", Params: map[string]string{"productId": "4", "quantity": "12"}})
	if err != nil {
		t.Fatalf("offline Submit failed: %v", err)
	}
	if !out.Queued || h.queue.Len() != 1 {
		t.Fatalf("expected submission queued, got %+v (len=%d)", out, h.queue.Len())
	}

	actor := testsupport.NewFakeActor()
	h.conn.Set(actor)
	out, err = h.svc.Submit(ctx, api.SubmitRequest{Type: "updateStock", Params: map[string]string{"productId": "4", "quantity": "13"}})
	if err != nil {
		t.Fatalf("online Submit failed: %v", err)
	}
	if out.Queued {
		t.Fatal("expected direct call while online")
	}
	if got := actor.CallCount(remote.OpUpdateStock); got != 1 {
		t.Fatalf("expected 1 updateStock call, got %d", got)
	}
	if h.cache.Generation(cache.KeyProducts) == 0 {
		t.Fatal("expected products view invalidated")
	}
}

func TestServiceSubmitRejectsBadRequests(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Submit(ctx, api.SubmitRequest{Type: "nope"}); !errors.Is(err, api.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for unknown type, got %v", err)
	}

	_, err := h.svc.Submit(ctx, api.SubmitRequest{Type: "createFeedback", Params: map[string]string{"message": "x", "rating": "9"}})
	if !errors.Is(err, api.ErrBadRequest) || !errors.Is(err, mutation.ErrInvalidParams) {
		t.Fatalf("expected bad request wrapping invalid params, got %v", err)
	}

	if _, err := h.svc.Submit(ctx, api.SubmitRequest{Type: "saveArtifact", Params: map[string]string{"bogus": "1"}}); !errors.Is(err, api.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for unknown field, got %v", err)
	}
	if h.queue.Len() != 0 {
		t.Fatalf("rejected submissions must not be queued, got %d", h.queue.Len())
	}
}

func TestServiceProcessReportsQueueCounts(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	h.enqueue(t, mutation.SaveArtifact{ArtifactID: "5"})

	resp, err := h.svc.Process(ctx)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !resp.Result.NoActor {
		t.Fatalf("expected no-actor pass, got %+v", resp.Result)
	}
	if resp.Queue.Total != 1 || resp.Queue.Pending != 1 {
		t.Fatalf("expected queue counts from the queue itself, got %+v", resp.Queue)
	}
	if resp.Sync.QueueLength != 0 {
		t.Fatalf("no-actor pass must leave the status untouched, got %+v", resp.Sync)
	}

	actor := testsupport.NewFakeActor()
	actor.FailWith(remote.OpSaveArtifact, &remote.Error{Code: remote.KindForbidden, Message: "not allowed"})
	h.conn.Set(actor)

	resp, err = h.svc.Process(ctx)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if resp.Result.Permanent != 1 {
		t.Fatalf("expected 1 permanent failure, got %+v", resp.Result)
	}
	if resp.Queue.Failed != 1 {
		t.Fatalf("expected failed entry counted, got %+v", resp.Queue)
	}
	if resp.Sync.Status != string(syncstatus.StatusError) || resp.Sync.LastError == nil {
		t.Fatalf("expected error status with message, got %+v", resp.Sync)
	}
	if !strings.Contains(*resp.Sync.LastError, "failed permanently") {
		t.Fatalf("unexpected last error: %q", *resp.Sync.LastError)
	}
}

func TestServiceWithoutComponentsIsUnavailable(t *testing.T) {
	svc := api.NewSyncService(api.SyncDeps{})
	ctx := context.Background()

	checks := map[string]func() error{
		"status":  func() error { _, err := svc.Status(ctx); return err },
		"list":    func() error { _, err := svc.List(ctx); return err },
		"process": func() error { _, err := svc.Process(ctx); return err },
		"submit":  func() error { _, err := svc.Submit(ctx, api.SubmitRequest{Type: "saveArtifact"}); return err },
		"cache":   func() error { _, err := svc.Cache(ctx); return err },
	}
	for name, call := range checks {
		if err := call(); !errors.Is(err, api.ErrUnavailable) {
			t.Errorf("%s: expected ErrUnavailable, got %v", name, err)
		}
	}
}
