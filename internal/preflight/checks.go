package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"storesync/internal/config"
	"storesync/internal/logging"
	"storesync/internal/remote"
)

const backendCheckTimeout = 5 * time.Second

// HealthChecker is the backend probe used by CheckBackend. *remote.Client
// satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBackend calls the backend health endpoint once with a short timeout.
func CheckBackend(ctx context.Context, baseURL string, checker HealthChecker) Result {
	const name = "Storefront backend"
	if strings.TrimSpace(baseURL) == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if checker == nil {
		return Result{Name: name, Detail: "no client"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, backendCheckTimeout)
	defer cancel()

	if err := checker.Health(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeBackendError(baseURL, err)}
	}
	return Result{Name: name, Passed: true, Detail: baseURL + " (reachable)"}
}

// CheckBackendFromConfig builds a client from cfg and runs CheckBackend.
func CheckBackendFromConfig(ctx context.Context, cfg *config.Config) Result {
	client := remote.NewClientFromConfig(cfg, logging.NewNop())
	return CheckBackend(ctx, cfg.Remote.BaseURL, client)
}

func summarizeBackendError(baseURL string, err error) string {
	var remoteErr *remote.Error
	if errors.As(err, &remoteErr) {
		switch remoteErr.ErrorKind() {
		case remote.KindUnauthorized, remote.KindForbidden:
			return fmt.Sprintf("%s (auth failed: check remote.api_token)", baseURL)
		case remote.KindTimeout:
			return fmt.Sprintf("%s (timed out)", baseURL)
		case remote.KindNetwork:
			return fmt.Sprintf("%s (unreachable)", baseURL)
		}
		if remoteErr.Status != 0 {
			return fmt.Sprintf("%s (health check failed: status %d)", baseURL, remoteErr.Status)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s (timed out)", baseURL)
	}
	return fmt.Sprintf("%s (health check failed: %v)", baseURL, err)
}
