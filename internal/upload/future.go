package upload

import (
	"context"
	"sync/atomic"
	"time"
)

// Result describes a completed upload.
type Result struct {
	Name    string        `json:"name"`
	URL     string        `json:"url"`
	Bytes   int64         `json:"bytes"`
	Elapsed time.Duration `json:"elapsed"`
}

// Future is the pending outcome of one upload.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc
	total  int64
	sent   atomic.Int64

	res Result
	err error
}

func newFuture(cancel context.CancelFunc, total int64) *Future {
	return &Future{done: make(chan struct{}), cancel: cancel, total: total}
}

// Done is closed once the upload succeeded, failed, or was cancelled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the upload resolves or ctx ends. When ctx ends first the
// upload keeps running and Wait returns ctx.Err().
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel aborts the upload. It is a no-op once the future has resolved.
func (f *Future) Cancel() {
	f.cancel()
}

// Progress reports bytes handed to the transport so far and the expected
// total, which is -1 when unknown.
func (f *Future) Progress() (sent, total int64) {
	return f.sent.Load(), f.total
}

func (f *Future) resolve(res Result, err error) {
	f.res, f.err = res, err
	close(f.done)
	f.cancel()
}
