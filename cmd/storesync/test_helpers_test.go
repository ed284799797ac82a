package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"storesync/internal/config"
	"storesync/internal/daemon"
	"storesync/internal/logging"
	"storesync/internal/queue"
	"storesync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

// setupCLITestEnv writes a sqlite-backed config whose API address has no
// listener, so commands fall back to local storage.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("STORESYNC_API_TOKEN", "")
	t.Setenv("STORESYNC_ADMIN_TOKEN", "")

	opts = append([]testsupport.ConfigOption{
		testsupport.WithBackend(config.BackendSQLite),
		testsupport.WithBaseURL(""),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.API.Bind = unusedAddr(t)
	cfg.Remote.APIToken = ""

	configPath := filepath.Join(testsupport.BaseDir(cfg), "storesync.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

// openQueue opens the env's storage alongside the CLI.
func (e *cliTestEnv) openQueue(t *testing.T) *queue.Queue {
	t.Helper()
	return testsupport.MustOpenQueue(t, e.cfg)
}

// startDaemon runs a daemon for the env and returns its API address.
func (e *cliTestEnv) startDaemon(t *testing.T) string {
	t.Helper()
	cfg := *e.cfg
	cfg.API.Bind = "127.0.0.1:0"
	store := testsupport.MustOpenStore(t, &cfg)
	d, err := daemon.New(&cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		d.Stop()
	})
	return d.Status().APIAddress
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func unusedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

// fakeStorefront answers health checks and records rpc paths.
type fakeStorefront struct {
	mu    sync.Mutex
	calls []string
	srv   *httptest.Server
}

func newFakeStorefront(t *testing.T) *fakeStorefront {
	t.Helper()
	f := &fakeStorefront{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/rpc/"):
			f.mu.Lock()
			f.calls = append(f.calls, strings.TrimPrefix(r.URL.Path, "/rpc/"))
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeStorefront) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
