package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storesync/internal/logging"
)

// Item is the envelope persisted for every value.
type Item[T any] struct {
	Version   int        `json:"version"`
	Data      T          `json:"data"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// expired reports whether the envelope has passed its expiry at now.
func (i Item[T]) expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// SetOptions controls how a value is written.
type SetOptions struct {
	Version int
	// ExpiresIn is the lifetime of the value; zero means it never expires.
	ExpiresIn time.Duration
}

// Store layers namespaced, versioned envelopes over a Backend.
type Store struct {
	backend   Backend
	namespace string
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for creation and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger routes storage warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "storage")
	}
}

// New wraps backend. Keys are stored as "<namespace>:<key>".
func New(backend Backend, namespace string, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		namespace: strings.TrimSpace(namespace),
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) prefix() string {
	return s.namespace + ":"
}

func (s *Store) fullKey(key string) string {
	return s.prefix() + key
}

// Get returns the value stored under key when its envelope carries
// expectedVersion and has not expired. Mismatched, expired, and corrupt
// envelopes are removed.
func Get[T any](s *Store, key string, expectedVersion int) (T, bool) {
	var zero T
	raw, ok, err := s.backend.Get(s.fullKey(key))
	if err != nil {
		logging.WarnWithContext(s.logger, "storage read failed", "storage_read_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "value treated as absent"),
		)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var item Item[T]
	if err := json.Unmarshal(raw, &item); err != nil {
		s.logger.Warn("discarding undecodable value", logging.String("key", key), logging.Error(err))
		s.Remove(key)
		return zero, false
	}
	if item.Version != expectedVersion {
		s.logger.Info("discarding value with stale version",
			logging.String("key", key),
			logging.Int("version", item.Version),
			logging.Int("expected_version", expectedVersion),
		)
		s.Remove(key)
		return zero, false
	}
	if item.expired(s.now()) {
		s.logger.Debug("discarding expired value", logging.String("key", key))
		s.Remove(key)
		return zero, false
	}
	return item.Data, true
}

// Set replaces the envelope under key. When the backend rejects the write for
// capacity, expired entries in the namespace are evicted and the write is
// retried once.
func Set[T any](s *Store, key string, data T, opts SetOptions) error {
	now := s.now().UTC()
	item := Item[T]{Version: opts.Version, Data: data, CreatedAt: now}
	if opts.ExpiresIn > 0 {
		expiresAt := now.Add(opts.ExpiresIn)
		item.ExpiresAt = &expiresAt
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = s.backend.Set(s.fullKey(key), raw)
	if errors.Is(err, ErrQuotaExceeded) {
		evicted := s.ClearExpired()
		s.logger.Info("storage quota reached, evicted expired entries",
			logging.String("key", key),
			logging.Int("evicted", evicted),
		)
		err = s.backend.Set(s.fullKey(key), raw)
	}
	if err != nil {
		logging.WarnWithContext(s.logger, "storage write failed", "storage_write_failed",
			logging.String("key", key),
			logging.Int("bytes", len(raw)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "persisted state no longer matches the caller"),
			logging.String(logging.FieldErrorHint, "raise storage.quota_bytes or clear failed mutations"),
		)
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Failures are logged.
func (s *Store) Remove(key string) {
	if err := s.backend.Delete(s.fullKey(key)); err != nil {
		s.logger.Warn("storage delete failed", logging.String("key", key), logging.Error(err))
	}
}

// envelopeHeader decodes only the fields needed for expiry checks.
type envelopeHeader struct {
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ClearExpired removes every expired or undecodable entry in the namespace and
// returns how many were removed.
func (s *Store) ClearExpired() int {
	keys, err := s.backend.Keys(s.prefix())
	if err != nil {
		s.logger.Warn("storage key scan failed", logging.Error(err))
		return 0
	}
	now := s.now()
	removed := 0
	for _, full := range keys {
		raw, ok, err := s.backend.Get(full)
		if err != nil || !ok {
			continue
		}
		var header envelopeHeader
		if err := json.Unmarshal(raw, &header); err == nil && (header.ExpiresAt == nil || now.Before(*header.ExpiresAt)) {
			continue
		}
		if err := s.backend.Delete(full); err != nil {
			s.logger.Warn("storage delete failed", logging.String("key", full), logging.Error(err))
			continue
		}
		removed++
	}
	return removed
}

// Keys returns the namespace-relative keys currently stored.
func (s *Store) Keys() []string {
	keys, err := s.backend.Keys(s.prefix())
	if err != nil {
		s.logger.Warn("storage key scan failed", logging.Error(err))
		return nil
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, s.prefix()))
	}
	return out
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
