package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"vidfetch/internal/config"
	"vidfetch/internal/logging"
)

type globalFlags struct {
	config   string
	tempDir  string
	logLevel string
}

// commandContext lazily loads configuration and the logger shared by all
// subcommands.
type commandContext struct {
	flags *globalFlags

	once   sync.Once
	config *config.Config
	logger *slog.Logger
	err    error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.err = err
			return
		}
		if v := strings.TrimSpace(c.flags.tempDir); v != "" {
			cfg.TempDir = v
		}
		if v := strings.TrimSpace(c.flags.logLevel); v != "" {
			cfg.LogLevel = v
		}
		if err := cfg.Validate(); err != nil {
			c.err = fmt.Errorf("invalid config: %w", err)
			return
		}

		logger, err := logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: os.Stderr,
		})
		if err != nil {
			c.err = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.err
}
