package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.Codec != defaultCodec {
		return fmt.Errorf("audio.codec: unsupported value %q (only %q is supported)", c.Audio.Codec, defaultCodec)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if strings.Count(c.Download.URLTemplate, "%s") != 1 {
		return errors.New("download.url_template must contain exactly one %s placeholder")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.MissingChunksLog == c.Audit.MissingNotesLog {
		return errors.New("audit.missing_chunks_log and audit.missing_notes_log must be different files")
	}
	return nil
}
