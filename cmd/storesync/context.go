package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"storesync/internal/api"
	"storesync/internal/config"
	"storesync/internal/daemon"
	"storesync/internal/logging"
	"storesync/internal/storage"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, apiFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiAddress(cfg *config.Config) string {
	if c.apiFlag != nil {
		if value := strings.TrimSpace(*c.apiFlag); value != "" {
			return value
		}
	}
	return cfg.API.Bind
}

// logger writes to stderr so command output on stdout stays parseable.
func (c *commandContext) logger(cfg *config.Config) *slog.Logger {
	level := "warn"
	if c.verbose != nil && *c.verbose {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// serviceMode tells callers whether fn ran against a daemon or local storage.
type serviceMode int

const (
	modeDaemon serviceMode = iota
	modeLocal
)

// withService runs fn against the daemon API when a daemon answers, otherwise
// against storage opened in-process. probe asks the local path to check the
// backend first so submissions and drains can reach it.
func (c *commandContext) withService(cmd *cobra.Command, probe bool, fn func(api.Service, serviceMode) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := api.NewClient(c.apiAddress(cfg), cfg.API.Token)
	if err := client.Ping(ctx); err == nil {
		return fn(client, modeDaemon)
	}

	logger := c.logger(cfg)
	store, err := storage.OpenFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage (is a daemon holding it?): %w", err)
	}
	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer d.Close()

	if probe {
		d.Probe(ctx)
	}
	return fn(d.Service(), modeLocal)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
