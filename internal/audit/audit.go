// Package audit checks an output tree against the manifest and lists the
// chunks whose audio or notes file is missing.
//
// Findings are appended to two plain-text logs, one line per missing file:
//
//	Missing audio for {song} chunk {chunk}
//	Missing notes for {song} chunk {chunk}
//
// The logs are opened in append mode, so repeated runs accumulate lines
// unless Options.Truncate is set, which empties both logs before the walk.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"solea/internal/fileutil"
	"solea/internal/layout"
	"solea/internal/logging"
	"solea/internal/manifest"
	"solea/internal/media/ffprobe"
	"solea/internal/metrics"
	"solea/internal/services"
)

// Options configures an audit run.
type Options struct {
	Root            string
	MissingAudioLog string
	MissingNotesLog string
	// Truncate empties both logs before the run instead of appending.
	Truncate bool
	// Verify probes existing chunk audio and compares its sample rate with
	// SampleRate.
	Verify     bool
	SampleRate int
}

// Prober reports stream metadata for an audio file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Mismatch is an existing chunk whose audio failed verification.
type Mismatch struct {
	SongID  string
	ChunkID string
	Rate    int
	Err     error
}

// Report summarizes an audit run. The log files remain the durable output.
type Report struct {
	Chunks       int
	MissingAudio int
	MissingNotes int
	Verified     int
	Mismatches   []Mismatch
}

// Complete reports whether nothing was missing or mismatched.
func (r Report) Complete() bool {
	return r.MissingAudio == 0 && r.MissingNotes == 0 && len(r.Mismatches) == 0
}

// Auditor walks manifest groups and records missing outputs.
type Auditor struct {
	opts    Options
	prober  Prober
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// New creates an auditor.
func New(opts Options, logger *slog.Logger) *Auditor {
	return &Auditor{opts: opts, logger: logging.NewComponentLogger(logger, "audit")}
}

// WithProber enables sample-rate verification through p.
func (a *Auditor) WithProber(p Prober) {
	a.prober = p
}

// WithMetrics records missing-item counters on r.
func (a *Auditor) WithMetrics(r *metrics.Recorder) {
	a.metrics = r
}

// Run checks every record of every group.
func (a *Auditor) Run(ctx context.Context, groups []manifest.Group) (Report, error) {
	var report Report
	audioLog := newAppendLog(a.opts.MissingAudioLog)
	notesLog := newAppendLog(a.opts.MissingNotesLog)
	defer audioLog.Close()
	defer notesLog.Close()

	if a.opts.Truncate {
		if err := audioLog.Truncate(); err != nil {
			return report, err
		}
		if err := notesLog.Truncate(); err != nil {
			return report, err
		}
	}

	verify := a.opts.Verify && a.prober != nil
	for _, group := range groups {
		for _, rec := range group.Records {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			chunk := string(rec.ChunkID)
			report.Chunks++

			audioPath := layout.AudioPath(a.opts.Root, group.SongID, chunk)
			if !fileutil.FileExists(audioPath) {
				report.MissingAudio++
				if err := audioLog.Printf("Missing audio for %s chunk %s\n", group.SongID, chunk); err != nil {
					return report, err
				}
			} else if verify {
				report.Verified++
				if m, ok := a.verify(ctx, group.SongID, chunk, audioPath); !ok {
					report.Mismatches = append(report.Mismatches, m)
				}
			}
			if !fileutil.FileExists(layout.NotesPath(a.opts.Root, group.SongID, chunk)) {
				report.MissingNotes++
				if err := notesLog.Printf("Missing notes for %s chunk %s\n", group.SongID, chunk); err != nil {
					return report, err
				}
			}
		}
	}

	if err := audioLog.Close(); err != nil {
		return report, err
	}
	if err := notesLog.Close(); err != nil {
		return report, err
	}
	if a.metrics != nil {
		a.metrics.RecordMissing(report.MissingAudio, report.MissingNotes)
	}

	a.logger.Info("dataset check finished",
		logging.String(logging.FieldEventType, "audit_complete"),
		logging.Int("chunks", report.Chunks),
		logging.Int("missing_audio", report.MissingAudio),
		logging.Int("missing_notes", report.MissingNotes),
		logging.Int("mismatched", len(report.Mismatches)),
	)
	return report, nil
}

func (a *Auditor) verify(ctx context.Context, song, chunk, path string) (Mismatch, bool) {
	m := Mismatch{SongID: song, ChunkID: chunk}
	logger := a.logger.With(logging.String(logging.FieldSongID, song), logging.String(logging.FieldChunkID, chunk))
	info, err := a.prober.Probe(ctx, path)
	if err != nil {
		m.Err = services.Wrap(services.ErrExternalTool, "audit", "probe", path, err)
		logging.WarnWithContext(logger, "chunk audio could not be probed", "audit_probe_failed",
			logging.Error(m.Err),
			logging.String(logging.FieldImpact, "chunk audio may be corrupt"),
			logging.String(logging.FieldErrorHint, "rerun processing with --overwrite for this song"),
		)
		return m, false
	}
	m.Rate = info.SampleRate()
	if m.Rate != a.opts.SampleRate {
		logging.WarnWithContext(logger, "chunk audio has unexpected sample rate", "audit_rate_mismatch",
			logging.Int("rate", m.Rate),
			logging.Int("expected_rate", a.opts.SampleRate),
			logging.String(logging.FieldImpact, "chunk does not match the dataset rate"),
			logging.String(logging.FieldErrorHint, "rerun processing with --overwrite and the intended --sample-rate"),
		)
		return m, false
	}
	return m, true
}

// appendLog opens its file on first write, so a run with nothing to report
// leaves no file behind.
type appendLog struct {
	path string
	file *os.File
}

func newAppendLog(path string) *appendLog {
	return &appendLog{path: path}
}

func (l *appendLog) Truncate() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("truncate %s: %w", l.path, err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("truncate %s: %w", l.path, err)
	}
	return f.Close()
}

func (l *appendLog) Printf(format string, args ...any) error {
	if l.file == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return fmt.Errorf("open %s: %w", l.path, err)
		}
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", l.path, err)
		}
		l.file = f
	}
	if _, err := fmt.Fprintf(l.file, format, args...); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	return nil
}

func (l *appendLog) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
