package testsupport

import (
	"testing"

	"github.com/gofrs/flock"

	"storesync/internal/config"
	"storesync/internal/logging"
	"storesync/internal/queue"
	"storesync/internal/storage"
)

// MustOpenStore opens the storage backend described by cfg and closes it when
// the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.OpenFromConfig(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenQueue opens storage for cfg and returns the mutation queue over it.
func MustOpenQueue(t testing.TB, cfg *config.Config, opts ...queue.Option) *queue.Queue {
	t.Helper()

	store := MustOpenStore(t, cfg)
	if len(opts) == 0 {
		return queue.Open(cfg, store, logging.NewNop())
	}
	opts = append([]queue.Option{queue.WithLocker(flock.New(cfg.QueueLockPath()))}, opts...)
	return queue.New(store, cfg.Queue.Key, cfg.Queue.SchemaVersion, opts...)
}
