package main

import (
	"testing"

	"storesync/internal/config"
)

func TestDaemonOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "warn"

	opts := daemonOptions(&cfg, func(string) string { return "" })
	if opts.LogLevel != "warn" {
		t.Fatalf("expected level from config, got %q", opts.LogLevel)
	}
	if opts.Development {
		t.Fatal("expected development mode off by default")
	}
}

func TestDaemonOptionsEnvOverrides(t *testing.T) {
	cfg := config.Default()
	env := map[string]string{
		levelEnv: " DEBUG ",
		devEnv:   "true",
	}

	opts := daemonOptions(&cfg, func(key string) string { return env[key] })
	if opts.LogLevel != "debug" {
		t.Fatalf("expected env level override, got %q", opts.LogLevel)
	}
	if !opts.Development {
		t.Fatal("expected development mode from env")
	}
}

func TestDaemonOptionsIgnoresBadDevValue(t *testing.T) {
	opts := daemonOptions(nil, func(key string) string {
		if key == devEnv {
			return "sometimes"
		}
		return ""
	})
	if opts.Development || opts.LogLevel != "" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
