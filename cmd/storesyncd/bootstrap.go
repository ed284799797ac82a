package main

import (
	"strconv"
	"strings"

	"storesync/internal/config"
	"storesync/internal/daemonrun"
)

const (
	configEnv = "STORESYNC_CONFIG"
	levelEnv  = "STORESYNC_LOG_LEVEL"
	devEnv    = "STORESYNC_DEV"
)

// daemonOptions derives run options from the config, letting the environment
// override the log level and development mode.
func daemonOptions(cfg *config.Config, getenv func(string) string) daemonrun.Options {
	opts := daemonrun.Options{}
	if cfg != nil {
		opts.LogLevel = cfg.Logging.Level
	}
	if getenv == nil {
		return opts
	}
	if level := strings.TrimSpace(getenv(levelEnv)); level != "" {
		opts.LogLevel = strings.ToLower(level)
	}
	if dev, err := strconv.ParseBool(strings.TrimSpace(getenv(devEnv))); err == nil {
		opts.Development = dev
	}
	return opts
}
