package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"solea/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives every record. Nil means stderr.
	Writer io.Writer
	// File, when set, receives a copy of every record through a rotating writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New constructs a slog logger using the provided options. Source locations
// are attached only at debug level.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))

	var out io.Writer = os.Stderr
	if opts.Writer != nil {
		out = opts.Writer
	}
	if file := strings.TrimSpace(opts.File); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
	}
	withSource := level.Level() <= slog.LevelDebug

	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		return slog.New(newConsoleHandler(out, level, withSource)), nil
	case "json":
		return slog.New(newJSONHandler(out, level, withSource)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a logger from the [logging] section. When no file is
// configured but a log directory is, records are also kept in solea.log there.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}

	file := cfg.Logging.File
	if file == "" && cfg.Paths.LogDir != "" {
		file = filepath.Join(cfg.Paths.LogDir, "solea.log")
	}

	return New(Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       file,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
