package syncstatus_test

import (
	"strings"
	"testing"
	"time"

	"storesync/internal/syncstatus"
)

func waitFor(t *testing.T, ch <-chan syncstatus.Snapshot, want syncstatus.Status) syncstatus.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.Status == want {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %q", want)
		}
	}
}

func TestSyncedRevertsToIdle(t *testing.T) {
	r := syncstatus.NewReporter(20 * time.Millisecond)
	ch, stop := r.Subscribe(8)
	defer stop()

	r.Syncing(2)
	if got := r.Snapshot(); got.Status != syncstatus.StatusSyncing || got.QueueLength != 2 {
		t.Fatalf("unexpected syncing snapshot: %+v", got)
	}
	r.Finish(syncstatus.Summary{})
	if got := r.Snapshot().Status; got != syncstatus.StatusSynced {
		t.Fatalf("expected synced, got %q", got)
	}
	waitFor(t, ch, syncstatus.StatusIdle)
	if got := r.Snapshot(); got.Status != syncstatus.StatusIdle || got.LastError != nil {
		t.Fatalf("unexpected idle snapshot: %+v", got)
	}
}

func TestRevertSkippedAfterNewPass(t *testing.T) {
	r := syncstatus.NewReporter(30 * time.Millisecond)
	r.Finish(syncstatus.Summary{})
	r.Syncing(1)

	time.Sleep(80 * time.Millisecond)
	if got := r.Snapshot().Status; got != syncstatus.StatusSyncing {
		t.Fatalf("stale revert clobbered state: %q", got)
	}
}

func TestErrorWording(t *testing.T) {
	r := syncstatus.NewReporter(time.Second)

	r.Finish(syncstatus.Summary{Remaining: 3, FailedCount: 1, PermanentCount: 1, RetryableCount: 2})
	snap := r.Snapshot()
	if snap.Status != syncstatus.StatusError || snap.LastError == nil {
		t.Fatalf("expected error with message, got %+v", snap)
	}
	if !strings.Contains(*snap.LastError, "1 change failed permanently") {
		t.Fatalf("unexpected permanent wording: %q", *snap.LastError)
	}
	if snap.QueueLength != 3 || snap.FailedCount != 1 || snap.RetryableCount != 2 {
		t.Fatalf("unexpected counts: %+v", snap)
	}

	r.Finish(syncstatus.Summary{Remaining: 2, RetryableCount: 2})
	snap = r.Snapshot()
	if snap.Status != syncstatus.StatusError || !strings.Contains(*snap.LastError, "2 changes failed and will be retried") {
		t.Fatalf("unexpected retryable wording: %+v", snap)
	}

	// Only the failures of this pass are named, not untried entries behind them.
	r.Finish(syncstatus.Summary{Remaining: 5, RetryableCount: 1})
	snap = r.Snapshot()
	if !strings.Contains(*snap.LastError, "1 change failed and will be retried") || snap.QueueLength != 5 {
		t.Fatalf("expected retryable count in wording, got %+v (%q)", snap, *snap.LastError)
	}

	r.Finish(syncstatus.Summary{Remaining: 4})
	snap = r.Snapshot()
	if !strings.Contains(*snap.LastError, "4 changes still queued") {
		t.Fatalf("unexpected interrupted wording: %q", *snap.LastError)
	}

	time.Sleep(20 * time.Millisecond)
	if r.Snapshot().Status != syncstatus.StatusError {
		t.Fatal("error status must persist until a later pass")
	}
}
