package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storesync/internal/config"
	"storesync/internal/remote"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	result := CheckDirectoryAccess("test", " ")
	if result.Passed || result.Detail != "not configured" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckBackend(t *testing.T) {
	ok := CheckBackend(context.Background(), "https://shop.example.com", healthFunc(func(context.Context) error { return nil }))
	if !ok.Passed {
		t.Fatalf("expected pass, got %+v", ok)
	}

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"auth", &remote.Error{Code: remote.KindUnauthorized, Status: 401}, "auth failed"},
		{"network", &remote.Error{Code: remote.KindNetwork, Err: errors.New("dial tcp: refused")}, "unreachable"},
		{"status", &remote.Error{Code: remote.KindInternal, Status: 500}, "status 500"},
		{"deadline", context.DeadlineExceeded, "timed out"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckBackend(context.Background(), "https://shop.example.com", healthFunc(func(context.Context) error { return tc.err }))
			if result.Passed {
				t.Fatal("expected failure")
			}
			if !strings.Contains(result.Detail, tc.want) {
				t.Fatalf("expected detail containing %q, got %q", tc.want, result.Detail)
			}
		})
	}
}

func TestCheckBackendMissingURL(t *testing.T) {
	result := CheckBackend(context.Background(), "", nil)
	if result.Passed || result.Detail != "missing base url" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunAllSkipsBackendWithoutURL(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing")
	cfg.Remote.BaseURL = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
