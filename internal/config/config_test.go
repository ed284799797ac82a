package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"storesync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("STORESYNC_API_TOKEN", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "storesync")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Storage.Backend != config.BackendSQLite {
		t.Fatalf("unexpected backend: %q", cfg.Storage.Backend)
	}
	if cfg.StoragePath() != filepath.Join(wantData, "storage.db") {
		t.Fatalf("unexpected storage path: %q", cfg.StoragePath())
	}
	if cfg.Queue.Key != "offline_mutation_queue" || cfg.Queue.SchemaVersion != 1 {
		t.Fatalf("unexpected queue settings: %+v", cfg.Queue)
	}
	if cfg.SyncedDisplay() != 3*time.Second {
		t.Fatalf("unexpected synced display: %s", cfg.SyncedDisplay())
	}
	if cfg.CallTimeout() != 0 {
		t.Fatalf("expected call timeout disabled by default, got %s", cfg.CallTimeout())
	}
	if cfg.API.Bind != "127.0.0.1:7491" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
}

func TestLoadReadsTOMLAndEnvToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STORESYNC_API_TOKEN", "  env-token  ")

	dir := t.TempDir()
	path := filepath.Join(dir, "storesync.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"data_dir": filepath.Join(dir, "data"),
		},
		"storage": map[string]any{
			"backend":     "PEBBLE",
			"quota_bytes": 1024,
		},
		"remote": map[string]any{
			"base_url": "https://shop.example.com/",
		},
		"replay": map[string]any{
			"call_timeout_seconds": 20,
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal toml: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Storage.Backend != config.BackendPebble {
		t.Fatalf("expected backend normalized to pebble, got %q", cfg.Storage.Backend)
	}
	if cfg.StoragePath() != filepath.Join(dir, "data", "pebble") {
		t.Fatalf("unexpected storage path: %q", cfg.StoragePath())
	}
	if cfg.Storage.QuotaBytes != 1024 {
		t.Fatalf("unexpected quota: %d", cfg.Storage.QuotaBytes)
	}
	if cfg.Remote.BaseURL != "https://shop.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.APIToken != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Remote.APIToken)
	}
	if cfg.CallTimeout() != 20*time.Second {
		t.Fatalf("unexpected call timeout: %s", cfg.CallTimeout())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"backend", func(c *config.Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"namespace", func(c *config.Config) { c.Storage.Namespace = "a:b" }, "storage.namespace"},
		{"quota", func(c *config.Config) { c.Storage.QuotaBytes = -1 }, "storage.quota_bytes"},
		{"base url scheme", func(c *config.Config) { c.Remote.BaseURL = "ftp://x" }, "remote.base_url"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"call timeout", func(c *config.Config) { c.Replay.CallTimeoutSeconds = -5 }, "replay.call_timeout_seconds"},
		{"log retention", func(c *config.Config) { c.Logging.RetentionDays = -1 }, "logging.retention_days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Storage.Namespace != "storefront" {
		t.Fatalf("unexpected namespace from sample: %q", cfg.Storage.Namespace)
	}
}
