package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"solea/internal/fileutil"
	"solea/internal/layout"
	"solea/internal/logging"
	"solea/internal/manifest"
	"solea/internal/media/audio"
	"solea/internal/media/resample"
	"solea/internal/metrics"
	"solea/internal/notes"
	"solea/internal/services"
)

// Downloader places the full audio for remoteID inside dir and returns its path.
type Downloader interface {
	Download(ctx context.Context, remoteID, dir string) (string, error)
}

// Codec decodes full songs and encodes chunk audio.
type Codec interface {
	Decode(ctx context.Context, path string) (audio.Track, error)
	Encode(ctx context.Context, path string, track audio.Track) error
}

// ResampleFunc converts a track to the given rate.
type ResampleFunc func(track audio.Track, rate int) audio.Track

// Options controls where and how chunks are written.
type Options struct {
	Root       string
	SampleRate int
	// Overwrite regenerates existing chunk directories instead of skipping them.
	Overwrite bool
	Workers   int
}

// Processor runs song groups through download, decode, resample and slice.
type Processor struct {
	opts       Options
	downloader Downloader
	codec      Codec
	resample   ResampleFunc
	metrics    *metrics.Recorder
	logger     *slog.Logger

	progressMu sync.Mutex
	onGroup    func(Outcome)
}

// NewProcessor wires a processor.
func NewProcessor(opts Options, downloader Downloader, codec Codec, logger *slog.Logger) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Processor{
		opts:       opts,
		downloader: downloader,
		codec:      codec,
		resample:   resample.Track,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
}

// WithResampler replaces the resampling routine.
func (p *Processor) WithResampler(fn ResampleFunc) {
	if fn != nil {
		p.resample = fn
	}
}

// WithMetrics records group and chunk counters on r.
func (p *Processor) WithMetrics(r *metrics.Recorder) {
	p.metrics = r
}

// OnGroupDone registers a callback invoked once per finished group. Calls are
// serialized.
func (p *Processor) OnGroupDone(fn func(Outcome)) {
	p.onGroup = fn
}

// Run processes groups and returns their outcomes in input order. The error
// is non-nil only when ctx is cancelled; unstarted groups are then reported
// as cancelled.
func (p *Processor) Run(ctx context.Context, groups []manifest.Group) (Summary, error) {
	start := time.Now()
	runID, _ := services.RunIDFromContext(ctx)
	summary := Summary{RunID: runID, Outcomes: make([]Outcome, len(groups))}

	p.logger.Info("processing started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("groups", len(groups)),
		logging.Int("chunks", manifest.ChunkCount(groups)),
		logging.Int("workers", p.opts.Workers),
		logging.Bool("overwrite", p.opts.Overwrite),
	)

	var eg errgroup.Group
	eg.SetLimit(p.opts.Workers)
	for i, group := range groups {
		if ctx.Err() != nil {
			summary.Outcomes[i] = cancelledOutcome(group, ctx.Err())
			continue
		}
		eg.Go(func() error {
			var outcome Outcome
			if err := ctx.Err(); err != nil {
				outcome = cancelledOutcome(group, err)
			} else {
				outcome = p.ProcessGroup(ctx, group)
			}
			summary.Outcomes[i] = outcome
			p.notify(outcome)
			return nil
		})
	}
	_ = eg.Wait()

	summary.Elapsed = time.Since(start)
	written, skipped := summary.Chunks()
	p.logger.Info("processing finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("succeeded", summary.Count(StatusSucceeded)),
		logging.Int("skipped", summary.Count(StatusSkipped)),
		logging.Int("download_failed", summary.Count(StatusDownloadFailed)),
		logging.Int("processing_failed", summary.Count(StatusProcessingFailed)),
		logging.Int("chunks_written", written),
		logging.Int("chunks_skipped", skipped),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, ctx.Err()
}

func (p *Processor) notify(outcome Outcome) {
	if p.onGroup == nil {
		return
	}
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.onGroup(outcome)
}

func cancelledOutcome(group manifest.Group, err error) Outcome {
	return Outcome{SongID: group.SongID, RemoteID: group.RemoteID, Status: StatusCancelled, Err: err}
}

// fail finalizes a failed outcome. Errors caused by ctx ending are reported
// as cancellations rather than failures of the song.
func fail(ctx context.Context, outcome Outcome, status Status, chunk string, err error) Outcome {
	if ctx.Err() != nil {
		status = StatusCancelled
	}
	outcome.Status = status
	outcome.FailedChunk = chunk
	outcome.Err = err
	return outcome
}

// ProcessGroup handles one song group end to end. It never returns an error;
// failures are described by the Outcome.
func (p *Processor) ProcessGroup(ctx context.Context, group manifest.Group) (outcome Outcome) {
	start := time.Now()
	ctx = services.WithSongID(ctx, group.SongID)
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldRemoteID, group.RemoteID))

	outcome = Outcome{SongID: group.SongID, RemoteID: group.RemoteID}
	defer func() {
		outcome.Elapsed = time.Since(start)
		p.record(outcome)
		p.logOutcome(logger, outcome)
	}()

	if !p.opts.Overwrite && p.allChunksExist(group) {
		outcome.Status = StatusSkipped
		outcome.ChunksSkipped = len(group.Records)
		return outcome
	}

	transient := layout.TransientPath(p.opts.Root, group.SongID, group.RemoteID)
	source := transient
	defer func() {
		p.removeTransient(logger, transient)
		if source != transient {
			p.removeTransient(logger, source)
		}
	}()

	if !fileutil.FileExists(transient) {
		path, err := p.downloader.Download(ctx, group.RemoteID, layout.SongDir(p.opts.Root, group.SongID))
		if err != nil {
			return fail(ctx, outcome, StatusDownloadFailed, "", err)
		}
		source = path
		outcome.Downloaded = true
	}

	track, err := p.codec.Decode(ctx, source)
	if err != nil {
		return fail(ctx, outcome, StatusProcessingFailed, "", services.Wrap(services.ErrDecode, "process", "decode", source, err))
	}
	if track.Rate != p.opts.SampleRate {
		logger.Debug("resampling track",
			logging.Int("from_hz", track.Rate),
			logging.Int("to_hz", p.opts.SampleRate),
			logging.Int("frames", track.Frames()),
		)
		track = p.resample(track, p.opts.SampleRate)
	}

	for _, rec := range group.Records {
		chunk := string(rec.ChunkID)
		if err := ctx.Err(); err != nil {
			return fail(ctx, outcome, StatusCancelled, chunk, err)
		}
		written, err := p.writeChunk(ctx, logger, group.SongID, rec, track)
		if err != nil {
			return fail(ctx, outcome, StatusProcessingFailed, chunk, err)
		}
		if written {
			outcome.ChunksWritten++
		} else {
			outcome.ChunksSkipped++
		}
	}

	outcome.Status = StatusSucceeded
	return outcome
}

func (p *Processor) allChunksExist(group manifest.Group) bool {
	if len(group.Records) == 0 {
		return false
	}
	for _, rec := range group.Records {
		if !fileutil.DirExists(layout.ChunkDir(p.opts.Root, group.SongID, string(rec.ChunkID))) {
			return false
		}
	}
	return true
}

// writeChunk writes one chunk directory. It reports false when the directory
// already existed and overwrite is off. Files are written into a staging
// directory that replaces the chunk directory only once both are complete,
// so a failure never leaves a partial chunk or loses an existing one.
func (p *Processor) writeChunk(ctx context.Context, logger *slog.Logger, song string, rec manifest.Record, track audio.Track) (bool, error) {
	chunk := string(rec.ChunkID)
	dir := layout.ChunkDir(p.opts.Root, song, chunk)
	chunkLogger := logger.With(logging.String(logging.FieldChunkID, chunk))

	if !p.opts.Overwrite && fileutil.DirExists(dir) {
		chunkLogger.Info("chunk exists, skipping", logging.String(logging.FieldEventType, "chunk_skipped"))
		return false, nil
	}

	staging := layout.StagingDir(p.opts.Root, song, chunk)
	if err := os.RemoveAll(staging); err != nil {
		return false, services.Wrap(services.ErrValidation, "process", "staging dir", staging, err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return false, services.Wrap(services.ErrValidation, "process", "staging dir", staging, err)
	}
	defer p.discardStaging(chunkLogger, staging)

	slice := track.SliceSeconds(rec.Start, rec.End)
	if err := p.codec.Encode(ctx, filepath.Join(staging, layout.AudioFile), slice); err != nil {
		return false, services.Wrap(services.ErrExternalTool, "process", "encode chunk", chunk, err)
	}
	if err := notes.Write(filepath.Join(staging, notes.FileName), rec.Events()); err != nil {
		return false, fmt.Errorf("chunk %s: %w", chunk, err)
	}
	if err := fileutil.ReplaceDir(staging, dir); err != nil {
		return false, services.Wrap(services.ErrValidation, "process", "publish chunk", chunk, err)
	}

	chunkLogger.Debug("chunk written",
		logging.String(logging.FieldEventType, "chunk_written"),
		logging.Int("frames", slice.Frames()),
		logging.Int("notes", len(rec.Notes)),
	)
	return true, nil
}

// discardStaging removes what is left of a staging directory. After a
// successful publish nothing is left.
func (p *Processor) discardStaging(logger *slog.Logger, staging string) {
	if err := os.RemoveAll(staging); err != nil {
		logger.Warn("staging directory not removed",
			logging.String("path", staging),
			logging.Error(err),
			logging.String(logging.FieldEventType, "chunk_cleanup_failed"),
			logging.String(logging.FieldImpact, "hidden partial chunk left in the song directory"),
			logging.String(logging.FieldErrorHint, "delete the directory manually"),
		)
	}
}

func (p *Processor) removeTransient(logger *slog.Logger, path string) {
	removed, err := fileutil.RemoveIfExists(path)
	if err != nil {
		logging.WarnWithContext(logger, "full audio not removed", "transient_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "full-song audio left on disk"),
			logging.String(logging.FieldErrorHint, "delete the file manually"),
		)
		return
	}
	if removed {
		logger.Debug("full audio removed", logging.String("path", path))
	}
}

func (p *Processor) record(outcome Outcome) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordGroup(outcome.Status.MetricLabel(), outcome.Elapsed)
	p.metrics.RecordChunks(outcome.ChunksWritten, outcome.ChunksSkipped)
}

func (p *Processor) logOutcome(logger *slog.Logger, outcome Outcome) {
	attrs := []logging.Attr{
		logging.String("status", string(outcome.Status)),
		logging.Int("chunks_written", outcome.ChunksWritten),
		logging.Int("chunks_skipped", outcome.ChunksSkipped),
		logging.Duration("elapsed", outcome.Elapsed),
	}
	switch outcome.Status {
	case StatusDownloadFailed:
		logging.WarnWithContext(logger, "download failed, skipping song", "group_download_failed",
			append(attrs,
				logging.Error(outcome.Err),
				logging.String(logging.FieldImpact, "no chunks written for this song"),
				logging.String(logging.FieldErrorHint, "check the video is still available"),
			)...)
	case StatusCancelled:
		logger.Info("song interrupted", append(logging.Args(attrs...), logging.String(logging.FieldEventType, "group_cancelled"))...)
	case StatusProcessingFailed:
		hint := "inspect the chunk range and the ffmpeg output"
		if errors.Is(outcome.Err, services.ErrDecode) {
			hint = "the downloaded audio could not be decoded"
		}
		logging.ErrorWithContext(logger, "processing failed", "group_processing_failed",
			append(attrs,
				logging.Error(outcome.Err),
				logging.String(logging.FieldChunkID, outcome.FailedChunk),
				logging.String(logging.FieldErrorHint, hint),
			)...)
	case StatusSkipped:
		logger.Info("all chunks exist, skipping song", append(logging.Args(attrs...), logging.String(logging.FieldEventType, "group_skipped"))...)
	default:
		logger.Info("processed all chunks", append(logging.Args(attrs...), logging.String(logging.FieldEventType, "group_complete"))...)
	}
}
