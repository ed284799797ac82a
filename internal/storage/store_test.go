package storage_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storesync/internal/storage"
)

type cartSnapshot struct {
	ProductIDs []string `json:"productIds"`
	Total      string   `json:"total"`
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func backends(t *testing.T) map[string]func(quota int64) storage.Backend {
	t.Helper()
	return map[string]func(int64) storage.Backend{
		"memory": func(quota int64) storage.Backend { return storage.NewMemory(quota) },
		"sqlite": func(quota int64) storage.Backend {
			b, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "storage.db"), quota)
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
		"pebble": func(quota int64) storage.Backend {
			b, err := storage.OpenPebble(filepath.Join(t.TempDir(), "pebble"), quota)
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
	}
}

func TestRoundTripAcrossBackends(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := storage.New(open(0), "storefront")
			want := cartSnapshot{ProductIDs: []string{"1", "2"}, Total: "500"}

			require.NoError(t, storage.Set(store, "cart", want, storage.SetOptions{Version: 2}))

			got, ok := storage.Get[cartSnapshot](store, "cart", 2)
			require.True(t, ok)
			require.Equal(t, want, got)
			require.Equal(t, []string{"cart"}, store.Keys())
		})
	}
}

func TestVersionMismatchEvicts(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := storage.New(open(0), "storefront")
			require.NoError(t, storage.Set(store, "queue", []string{"a"}, storage.SetOptions{Version: 1}))

			_, ok := storage.Get[[]string](store, "queue", 2)
			require.False(t, ok)

			_, ok = storage.Get[[]string](store, "queue", 1)
			require.False(t, ok, "mismatched read must remove the stored entry")
			require.Empty(t, store.Keys())
		})
	}
}

func TestSetSupersedesWholesale(t *testing.T) {
	store := storage.New(storage.NewMemory(0), "storefront")
	require.NoError(t, storage.Set(store, "cart", cartSnapshot{ProductIDs: []string{"1"}, Total: "10"}, storage.SetOptions{Version: 1}))
	require.NoError(t, storage.Set(store, "cart", cartSnapshot{Total: "0"}, storage.SetOptions{Version: 1}))

	got, ok := storage.Get[cartSnapshot](store, "cart", 1)
	require.True(t, ok)
	require.Nil(t, got.ProductIDs)
	require.Equal(t, "0", got.Total)
}

func TestExpiredValueIsAbsentAndRemoved(t *testing.T) {
	clock := newClock()
	backend := storage.NewMemory(0)
	store := storage.New(backend, "storefront", storage.WithClock(clock.Now))

	require.NoError(t, storage.Set(store, "session", "token", storage.SetOptions{Version: 1, ExpiresIn: time.Minute}))
	got, ok := storage.Get[string](store, "session", 1)
	require.True(t, ok)
	require.Equal(t, "token", got)

	clock.Advance(time.Minute)
	_, ok = storage.Get[string](store, "session", 1)
	require.False(t, ok)

	_, present, err := backend.Get("storefront:session")
	require.NoError(t, err)
	require.False(t, present)
}

func TestUndecodableValueIsRemoved(t *testing.T) {
	backend := storage.NewMemory(0)
	require.NoError(t, backend.Set("storefront:queue", []byte("{not json")))
	store := storage.New(backend, "storefront")

	_, ok := storage.Get[[]string](store, "queue", 1)
	require.False(t, ok)
	require.Empty(t, store.Keys())
}

func TestClearExpiredOnlyTouchesNamespace(t *testing.T) {
	clock := newClock()
	backend := storage.NewMemory(0)
	store := storage.New(backend, "storefront", storage.WithClock(clock.Now))
	other := storage.New(backend, "admin", storage.WithClock(clock.Now))

	require.NoError(t, storage.Set(store, "short", 1, storage.SetOptions{Version: 1, ExpiresIn: time.Second}))
	require.NoError(t, storage.Set(store, "forever", 2, storage.SetOptions{Version: 1}))
	require.NoError(t, storage.Set(other, "short", 3, storage.SetOptions{Version: 1, ExpiresIn: time.Second}))

	clock.Advance(2 * time.Second)
	require.Equal(t, 1, store.ClearExpired())
	require.Equal(t, []string{"forever"}, store.Keys())
	require.Equal(t, []string{"short"}, other.Keys())
}

func TestQuotaEvictsExpiredAndRetriesOnce(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			store := storage.New(open(400), "storefront", storage.WithClock(clock.Now))

			filler := make([]byte, 150)
			require.NoError(t, storage.Set(store, "stale", filler, storage.SetOptions{Version: 1, ExpiresIn: time.Second}))
			clock.Advance(time.Minute)

			require.NoError(t, storage.Set(store, "fresh", filler, storage.SetOptions{Version: 1}))
			require.Equal(t, []string{"fresh"}, store.Keys(), "expired entry should be evicted to make room")
		})
	}
}

func TestQuotaFailureIsReported(t *testing.T) {
	store := storage.New(storage.NewMemory(64), "storefront")
	err := storage.Set(store, "big", make([]byte, 512), storage.SetOptions{Version: 1})
	require.Error(t, err)
	require.True(t, errors.Is(err, storage.ErrQuotaExceeded))

	_, ok := storage.Get[[]byte](store, "big", 1)
	require.False(t, ok)
}
