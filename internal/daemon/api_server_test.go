package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

type apiHarness struct {
	handler http.Handler
	queue   *queue.Queue
	conn    *remote.Connection
	cache   *cache.Registry
}

func newAPIHarness(t *testing.T, token string) *apiHarness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.API.Token = token
	q := testsupport.MustOpenQueue(t, cfg)
	conn := remote.NewConnection()
	reporter := syncstatus.NewReporter(time.Second)
	registry := cache.NewRegistry()
	engine := replay.NewEngine(conn, q, registry, reporter)
	runner := replay.NewRunner(engine, conn, cfg.DrainLockPath(), logging.NewNop())

	svc := api.NewSyncService(api.SyncDeps{
		Queue:     q,
		Status:    reporter,
		Cache:     registry,
		Conn:      conn,
		Drainer:   runner,
		Submitter: mutation.NewSubmitter(conn, q, registry, logging.NewNop()),
	})
	srv, err := newAPIServer(cfg, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	return &apiHarness{handler: srv.routes(token), queue: q, conn: conn, cache: registry}
}

func (h *apiHarness) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestAPIServerSubmitOfflineQueuesMutation(t *testing.T) {
	h := newAPIHarness(t, "")

	w := h.do(t, http.MethodPost, "/api/sync/submit", api.SubmitRequest{
		Type:   "saveArtifact",
		Params: map[string]string{"artifactId": "42"},
	}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[api.SubmitResponse](t, w)
	if !resp.Queued || resp.MutationID == "" {
		t.Fatalf("expected queued submission, got %+v", resp)
	}

	w = h.do(t, http.MethodGet, "/api/sync/queue", nil, nil)
	list := decode[api.QueueListResponse](t, w)
	if len(list.Items) != 1 || list.Items[0].ID != resp.MutationID {
		t.Fatalf("unexpected queue listing: %+v", list.Items)
	}
	if list.Items[0].State != api.StatePending {
		t.Fatalf("expected pending state, got %q", list.Items[0].State)
	}

	w = h.do(t, http.MethodGet, "/api/sync/queue/"+resp.MutationID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for describe, got %d", w.Code)
	}
	item := decode[api.QueueItemResponse](t, w)
	if item.Item.Type != "saveArtifact" {
		t.Fatalf("unexpected type %q", item.Item.Type)
	}
}

func TestAPIServerRemoveAndNotFound(t *testing.T) {
	h := newAPIHarness(t, "")
	id, err := h.queue.Enqueue(queue.TypeUpdateStock, mutation.UpdateStock{ProductID: "1", Quantity: "5"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	w := h.do(t, http.MethodDelete, "/api/sync/queue/"+id, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for remove, got %d", w.Code)
	}
	if !decode[api.RemoveResponse](t, w).Removed {
		t.Fatal("expected removed=true")
	}
	if h.queue.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", h.queue.Len())
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = h.do(t, method, "/api/sync/queue/"+id, nil, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, w.Code)
		}
	}
}

func TestAPIServerRejectsBadSubmissions(t *testing.T) {
	h := newAPIHarness(t, "")

	cases := []struct {
		name string
		body any
	}{
		{"unknown type", api.SubmitRequest{Type: "refundOrder"}},
		{"invalid params", api.SubmitRequest{Type: "saveArtifact", Params: map[string]string{"artifactId": "-3"}}},
		{"unknown field", map[string]any{"type": "saveArtifact", "extra": true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/api/sync/submit", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if decode[api.ErrorResponse](t, w).Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
	if h.queue.Len() != 0 {
		t.Fatalf("rejected submissions must not be queued, got %d", h.queue.Len())
	}
}

func TestAPIServerProcessDrainsQueue(t *testing.T) {
	h := newAPIHarness(t, "")
	for _, id := range []string{"1", "2"} {
		if _, err := h.queue.Enqueue(queue.TypeSaveArtifact, mutation.SaveArtifact{ArtifactID: id}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	actor := testsupport.NewFakeActor()
	h.conn.Set(actor)

	w := h.do(t, http.MethodPost, "/api/sync/process", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[api.ProcessResponse](t, w)
	if resp.Result.Succeeded != 2 || resp.Result.Remaining != 0 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}
	if resp.Sync.Status != string(syncstatus.StatusSynced) {
		t.Fatalf("expected synced status, got %q", resp.Sync.Status)
	}
	if got := actor.CallCount(remote.OpSaveArtifact); got != 2 {
		t.Fatalf("expected 2 saveArtifact calls, got %d", got)
	}

	w = h.do(t, http.MethodGet, "/api/cache", nil, nil)
	entries := decode[api.CacheResponse](t, w).Entries
	if len(entries) == 0 {
		t.Fatal("expected cache invalidations after replay")
	}
}

func TestAPIServerClearFailedAndStatus(t *testing.T) {
	h := newAPIHarness(t, "")
	failedID, err := h.queue.Enqueue(queue.TypeSaveArtifact, mutation.SaveArtifact{ArtifactID: "9"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := h.queue.Enqueue(queue.TypeSaveArtifact, mutation.SaveArtifact{ArtifactID: "10"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := h.queue.MarkAsFailed(failedID, "forbidden"); err != nil {
		t.Fatalf("MarkAsFailed: %v", err)
	}

	status := decode[api.StatusResponse](t, h.do(t, http.MethodGet, "/api/sync/status", nil, nil))
	if status.Online {
		t.Fatal("expected offline status without an actor")
	}
	if status.Queue.Total != 2 || status.Queue.Failed != 1 {
		t.Fatalf("unexpected queue stats: %+v", status.Queue)
	}

	w := h.do(t, http.MethodPost, "/api/sync/clear-failed", nil, nil)
	if got := decode[api.ClearResponse](t, w).Removed; got != 1 {
		t.Fatalf("expected 1 cleared, got %d", got)
	}
	if h.queue.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", h.queue.Len())
	}
}

func TestAPIServerAuth(t *testing.T) {
	h := newAPIHarness(t, "secret")

	if w := h.do(t, http.MethodGet, "/health", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", w.Code)
	}
	if w := h.do(t, http.MethodGet, "/api/sync/status", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	bad := map[string]string{"Authorization": "Bearer nope"}
	if w := h.do(t, http.MethodGet, "/api/sync/status", nil, bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	good := map[string]string{"Authorization": "Bearer secret"}
	if w := h.do(t, http.MethodGet, "/api/sync/status", nil, good); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestAPIServerMethodNotAllowed(t *testing.T) {
	h := newAPIHarness(t, "")
	w := h.do(t, http.MethodPut, "/api/sync/queue", nil, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
