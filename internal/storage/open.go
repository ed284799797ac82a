package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"storesync/internal/config"
)

// OpenFromConfig opens the configured backend and wraps it in a Store.
func OpenFromConfig(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("open storage: config is nil")
	}
	var (
		backend Backend
		err     error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		backend = NewMemory(cfg.Storage.QuotaBytes)
	case config.BackendPebble:
		if err := os.MkdirAll(cfg.StoragePath(), 0o755); err != nil {
			return nil, fmt.Errorf("create pebble dir: %w", err)
		}
		backend, err = OpenPebble(cfg.StoragePath(), cfg.Storage.QuotaBytes)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.StoragePath()), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		backend, err = OpenSQLite(cfg.StoragePath(), cfg.Storage.QuotaBytes)
	}
	if err != nil {
		return nil, err
	}
	return New(backend, cfg.Storage.Namespace, WithLogger(logger)), nil
}
