package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"solea/internal/config"
	"solea/internal/logging"
)

// runFlags holds the command-line overrides applied on top of the config file.
type runFlags struct {
	configPath   string
	logLevel     string
	logFormat    string
	rootFolder   string
	manifestPath string
	sampleRate   int
	workers      int
	overwrite    bool
	noProgress   bool
	checkDataset bool
}

type commandContext struct {
	flags *runFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *runFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the config file once and applies the flags that were
// explicitly set on cmd.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		c.applyOverrides(cmd, cfg)
		if err := cfg.Finalize(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("root-folder") {
		cfg.Paths.RootFolder = c.flags.rootFolder
	}
	if changed("json-file") {
		cfg.Paths.Manifest = c.flags.manifestPath
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = c.flags.sampleRate
	}
	if changed("workers") {
		cfg.Run.Workers = c.flags.workers
	}
	if changed("overwrite") {
		cfg.Run.Overwrite = c.flags.overwrite
	}
	if c.flags.noProgress {
		cfg.Run.Progress = false
	}
	if changed("log-level") {
		cfg.Logging.Level = c.flags.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = c.flags.logFormat
	}
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		if c.config == nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(c.config)
	})
	return c.logger, c.loggerErr
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
