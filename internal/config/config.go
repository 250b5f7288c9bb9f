package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the input manifest and output directory configuration.
type Paths struct {
	RootFolder string `toml:"root_folder"`
	Manifest   string `toml:"manifest"`
	LogDir     string `toml:"log_dir"`
}

// Audio contains the target format of the persisted chunks.
type Audio struct {
	SampleRate int    `toml:"sample_rate"`
	Codec      string `toml:"codec"`
}

// Download contains configuration for fetching the source recordings.
type Download struct {
	// Format is the quality selector handed to the downloader (e.g. "bestaudio").
	Format string `toml:"format"`
	// Extension is the container requested from the downloader (e.g. "m4a").
	Extension string `toml:"extension"`
	// URLTemplate turns a remote identifier into a fetchable URL; it must contain one %s.
	URLTemplate    string `toml:"url_template"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
}

// Run contains processing policy.
type Run struct {
	// Overwrite regenerates existing chunk directories instead of skipping them.
	Overwrite bool `toml:"overwrite"`
	Workers   int  `toml:"workers"`
	Progress  bool `toml:"progress"`
}

// Audit contains configuration for the dataset auditor.
type Audit struct {
	MissingChunksLog string `toml:"missing_chunks_log"`
	MissingNotesLog  string `toml:"missing_notes_log"`
	// TruncateLogs clears both logs at run start; the default appends.
	TruncateLogs bool `toml:"truncate_logs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Metrics contains configuration for run metrics export.
type Metrics struct {
	// Textfile, when set, receives the run's metrics in Prometheus text format.
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for Solea.
//
// Configuration sections by subsystem:
//   - Paths: output root, manifest, log directory
//   - Audio: target sample rate and chunk codec
//   - Download: downloader format selection and external binaries
//   - Run: overwrite policy and parallelism
//   - Audit: missing-output log files
//   - Logging: log format, level, and optional rotating file
//   - Metrics: Prometheus textfile export
type Config struct {
	Paths    Paths    `toml:"paths"`
	Audio    Audio    `toml:"audio"`
	Download Download `toml:"download"`
	Run      Run      `toml:"run"`
	Audit    Audit    `toml:"audit"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/solea/config.toml")
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

	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes and validates the config. Callers that mutate a loaded
// config (for example from command-line flags) must call it again.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("solea.toml")
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

// EnsureDirectories creates the output root and, when configured, the log directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.RootFolder}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for transcoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Download.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Download.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// LockPath returns the run lock guarding the output tree.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.RootFolder, ".solea.lock")
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
