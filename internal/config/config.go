package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Storage selects and sizes the durable key/value backend.
type Storage struct {
	Backend   string `toml:"backend"`
	Namespace string `toml:"namespace"`
	// QuotaBytes caps the total persisted value size; 0 disables the cap.
	QuotaBytes int64 `toml:"quota_bytes"`
}

// Queue contains the persisted mutation queue key and schema version.
type Queue struct {
	Key           string `toml:"key"`
	SchemaVersion int    `toml:"schema_version"`
}

// Replay contains timing knobs for drain passes.
type Replay struct {
	SyncedDisplaySeconds int `toml:"synced_display_seconds"`
	// CallTimeoutSeconds bounds each replayed remote call; 0 waits indefinitely.
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
}

// Remote contains configuration for the storefront backend.
type Remote struct {
	BaseURL         string `toml:"base_url"`
	APIToken        string `toml:"api_token"`
	RequestTimeout  int    `toml:"request_timeout"`
	ProbeInterval   int    `toml:"probe_interval"`
	MaxConnsPerHost int    `toml:"max_conns_per_host"`
}

// API contains the management API bind address and optional bearer token.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for storesync.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Storage: key/value backend, namespace, and quota
//   - Queue: persisted queue key and schema version
//   - Replay: drain pass timing
//   - Remote: storefront backend endpoint and credentials
//   - API: management API bind address
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Storage Storage `toml:"storage"`
	Queue   Queue   `toml:"queue"`
	Replay  Replay  `toml:"replay"`
	Remote  Remote  `toml:"remote"`
	API     API     `toml:"api"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storesync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StoragePath returns the on-disk location of the configured backend.
func (c *Config) StoragePath() string {
	switch c.Storage.Backend {
	case BackendPebble:
		return filepath.Join(c.Paths.DataDir, "pebble")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(c.Paths.DataDir, "storage.db")
	}
}

// QueueLockPath is the file lock serializing queue writers across processes.
func (c *Config) QueueLockPath() string {
	return filepath.Join(c.Paths.DataDir, "queue.lock")
}

// DrainLockPath is the file lock held for the duration of a drain pass.
func (c *Config) DrainLockPath() string {
	return filepath.Join(c.Paths.DataDir, "drain.lock")
}

// DaemonLockPath is the single-instance lock for the daemon.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "storesync.lock")
}

// SyncedDisplay returns how long the synced status stays visible before reverting to idle.
func (c *Config) SyncedDisplay() time.Duration {
	return time.Duration(c.Replay.SyncedDisplaySeconds) * time.Second
}

// CallTimeout returns the per-call replay timeout, or 0 when disabled.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Replay.CallTimeoutSeconds) * time.Second
}

// RequestTimeout returns the remote client request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Remote.RequestTimeout) * time.Second
}

// ProbeInterval returns how often the remote health endpoint is probed.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.Remote.ProbeInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
