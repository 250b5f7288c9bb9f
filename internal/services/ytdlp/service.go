package ytdlp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"solea/internal/fileutil"
	"solea/internal/logging"
	"solea/internal/services"
)

// Transcoder converts a downloaded container into FLAC.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// Service downloads remote audio into a song directory.
type Service struct {
	cfg        Config
	transcoder Transcoder
	fetch      FetchFunc
	logger     *slog.Logger
}

// NewService creates a download service. Empty config fields take defaults.
func NewService(cfg Config, transcoder Transcoder, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = DefaultFormat
	}
	cfg.Extension = strings.TrimPrefix(strings.TrimSpace(cfg.Extension), ".")
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if strings.Count(cfg.URLTemplate, "%s") != 1 {
		cfg.URLTemplate = DefaultURLTemplate
	}
	return &Service{
		cfg:        cfg,
		transcoder: transcoder,
		fetch:      fetchWithLibrary,
		logger:     logging.NewComponentLogger(logger, "download"),
	}
}

// WithFetcher replaces the network fetcher (for testing).
func (s *Service) WithFetcher(fetch FetchFunc) {
	if fetch != nil {
		s.fetch = fetch
	}
}

// OutputPath returns where Download leaves the audio for remoteID.
func OutputPath(dir, remoteID string) string {
	return filepath.Join(dir, remoteID+"."+outputExtension)
}

// URL returns the watch URL for remoteID.
func (s *Service) URL(remoteID string) string {
	return fmt.Sprintf(s.cfg.URLTemplate, remoteID)
}

// Download fetches remoteID into dir and returns the path of the FLAC file.
// Intermediate files are removed whether or not the download succeeds.
func (s *Service) Download(ctx context.Context, remoteID, dir string) (string, error) {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return "", services.Wrap(services.ErrValidation, "download", "remote id", "empty identifier", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDownload, "download", "prepare", dir, err)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	source := filepath.Join(dir, remoteID+sourceInfix+"."+s.cfg.Extension)
	defer s.removeIntermediates(dir, remoteID)

	url := s.URL(remoteID)
	logger := s.logger.With(logging.String(logging.FieldRemoteID, remoteID))
	logger.Info("fetching audio", logging.String("url", url), logging.String(logging.FieldEventType, "download_start"))

	sampler := logging.NewProgressSampler(25)
	progress := func(percent float64) {
		if sampler.ShouldLog(percent, "fetch") {
			logger.Debug("fetch progress", logging.Float64("percent", percent))
		}
	}
	if err := s.fetch(ctx, url, source, s.cfg.Format, s.cfg.Extension, progress); err != nil {
		return "", services.Wrap(services.ErrDownload, "download", "fetch", remoteID, err)
	}

	fetched, err := locateFetched(source, dir, remoteID)
	if err != nil {
		return "", services.Wrap(services.ErrDownload, "download", "locate", remoteID, err)
	}

	dest := OutputPath(dir, remoteID)
	partial := filepath.Join(dir, "."+remoteID+"."+outputExtension+".partial")
	if err := s.transcoder.Transcode(ctx, fetched, partial); err != nil {
		_, _ = fileutil.RemoveIfExists(partial)
		return "", services.Wrap(services.ErrDownload, "download", "transcode", remoteID, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_, _ = fileutil.RemoveIfExists(partial)
		return "", services.Wrap(services.ErrDownload, "download", "finalize", remoteID, err)
	}

	logger.Info("audio ready", logging.String("path", dest), logging.String(logging.FieldEventType, "download_complete"))
	return dest, nil
}

// locateFetched returns the file the fetcher produced. Fetchers may pick
// their own container extension, so any "{id}.source.*" file is accepted.
func locateFetched(expected, dir, remoteID string) (string, error) {
	if fileutil.FileExists(expected) {
		return expected, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(remoteID)+sourceInfix+".*"))
	if err != nil {
		return "", err
	}
	for _, match := range matches {
		if fileutil.FileExists(match) {
			return match, nil
		}
	}
	return "", fmt.Errorf("%w: no file produced for %s", services.ErrNotFound, remoteID)
}

func (s *Service) removeIntermediates(dir, remoteID string) {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(remoteID)+sourceInfix+".*"))
	if err != nil {
		return
	}
	for _, match := range matches {
		if _, err := fileutil.RemoveIfExists(match); err != nil {
			logging.WarnWithContext(s.logger, "intermediate download not removed", "download_cleanup_failed",
				logging.String("path", match), logging.Error(err),
				logging.String(logging.FieldImpact, "stray file left in song directory"))
		}
	}
}

func globEscape(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return replacer.Replace(s)
}
