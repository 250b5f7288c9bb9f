package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeDownload()
	if err := c.normalizeAudit(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	if c.Run.Workers <= 0 {
		c.Run.Workers = defaultWorkers
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RootFolder) == "" {
		c.Paths.RootFolder = defaultRootFolder
	}
	if c.Paths.RootFolder, err = expandPath(strings.TrimSpace(c.Paths.RootFolder)); err != nil {
		return fmt.Errorf("paths.root_folder: %w", err)
	}
	if strings.TrimSpace(c.Paths.Manifest) == "" {
		c.Paths.Manifest = defaultManifest
	}
	if c.Paths.Manifest, err = expandPath(strings.TrimSpace(c.Paths.Manifest)); err != nil {
		return fmt.Errorf("paths.manifest: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.Codec = strings.ToLower(strings.TrimSpace(c.Audio.Codec))
	if c.Audio.Codec == "" {
		c.Audio.Codec = defaultCodec
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeDownload() {
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	c.Download.Extension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Download.Extension)), ".")
	if c.Download.Extension == "" {
		c.Download.Extension = defaultDownloadExtension
	}
	c.Download.URLTemplate = strings.TrimSpace(c.Download.URLTemplate)
	if c.Download.URLTemplate == "" {
		c.Download.URLTemplate = defaultURLTemplate
	}
	if c.Download.TimeoutSeconds < 0 {
		c.Download.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeAudit() error {
	var err error
	if strings.TrimSpace(c.Audit.MissingChunksLog) == "" {
		c.Audit.MissingChunksLog = defaultMissingChunksLog
	}
	if c.Audit.MissingChunksLog, err = expandPath(strings.TrimSpace(c.Audit.MissingChunksLog)); err != nil {
		return fmt.Errorf("audit.missing_chunks_log: %w", err)
	}
	if strings.TrimSpace(c.Audit.MissingNotesLog) == "" {
		c.Audit.MissingNotesLog = defaultMissingNotesLog
	}
	if c.Audit.MissingNotesLog, err = expandPath(strings.TrimSpace(c.Audit.MissingNotesLog)); err != nil {
		return fmt.Errorf("audit.missing_notes_log: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	return nil
}
