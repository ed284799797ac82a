package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storesync/internal/logging"
	"storesync/internal/testsupport"
	"storesync/internal/upload"
)

type memorySink struct {
	mu          sync.Mutex
	stored      map[string][]byte
	contentType string
	block       chan struct{}
	err         error
}

func newMemorySink() *memorySink {
	return &memorySink{stored: map[string][]byte{}}
}

func (s *memorySink) UploadAsset(ctx context.Context, name, contentType string, body io.Reader, _ int64) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored[name] = data
	s.contentType = contentType
	return "https://cdn.storefront.test/" + name, nil
}

func TestStartResolvesWithURL(t *testing.T) {
	sink := newMemorySink()
	u := upload.NewUploader(sink, logging.NewNop())
	payload := bytes.Repeat([]byte("a"), 4096)

	var (
		mu       sync.Mutex
		observed []int64
		totals   []int64
	)
	f := u.Start(context.Background(), "poster.png", bytes.NewReader(payload), int64(len(payload)),
		upload.WithProgress(func(sent, total int64) {
			mu.Lock()
			observed = append(observed, sent)
			totals = append(totals, total)
			mu.Unlock()
		}))

	res, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://cdn.storefront.test/poster.png", res.URL)
	require.Equal(t, int64(len(payload)), res.Bytes)
	require.Equal(t, payload, sink.stored["poster.png"])
	require.Equal(t, "image/png", sink.contentType)

	sent, total := f.Progress()
	require.Equal(t, total, sent)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, observed)
	require.Equal(t, int64(len(payload)), observed[len(observed)-1])
	for _, total := range totals {
		require.Equal(t, int64(len(payload)), total)
	}
}

func TestCancelResolvesWithContextError(t *testing.T) {
	sink := newMemorySink()
	sink.block = make(chan struct{})
	u := upload.NewUploader(sink, logging.NewNop())

	f := u.Start(context.Background(), "big.bin", bytes.NewReader([]byte("x")), 1)
	f.Cancel()

	select {
	case <-f.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("future did not resolve after cancel")
	}
	_, err := f.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestParentContextCancelsUpload(t *testing.T) {
	sink := newMemorySink()
	sink.block = make(chan struct{})
	u := upload.NewUploader(sink, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	f := u.Start(ctx, "big.bin", bytes.NewReader([]byte("x")), 1)
	cancel()

	_, err := f.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitReturnsWhenCallerGivesUp(t *testing.T) {
	sink := newMemorySink()
	sink.block = make(chan struct{})
	u := upload.NewUploader(sink, logging.NewNop())

	f := u.Start(context.Background(), "slow.bin", bytes.NewReader([]byte("x")), 1)
	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Wait(waitCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(sink.block)
	res, err := f.Wait(context.Background())
	require.NoError(t, err, "upload continues after a caller stops waiting")
	require.Equal(t, "slow.bin", res.Name)
}

func TestSinkErrorIsReported(t *testing.T) {
	sink := newMemorySink()
	sink.err = errors.New("bucket full")
	u := upload.NewUploader(sink, logging.NewNop())

	_, err := u.Start(context.Background(), "a.txt", bytes.NewReader(nil), 0).Wait(context.Background())
	require.EqualError(t, err, "bucket full")
}

func TestStartFileUsesBaseName(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "catalog.json"), 128)
	sink := newMemorySink()
	u := upload.NewUploader(sink, logging.NewNop())

	f, err := u.StartFile(context.Background(), path)
	require.NoError(t, err)
	res, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "catalog.json", res.Name)
	require.Len(t, sink.stored["catalog.json"], 128)
	require.Equal(t, "application/json", sink.contentType)
}

func TestStartFileRejectsMissingAndDirectories(t *testing.T) {
	u := upload.NewUploader(newMemorySink(), logging.NewNop())

	_, err := u.StartFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = u.StartFile(context.Background(), t.TempDir())
	require.Error(t, err)
}
