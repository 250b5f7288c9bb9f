package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"solea/internal/config"
	"solea/internal/logging"
	"solea/internal/manifest"
	"solea/internal/media/audio"
	"solea/internal/metrics"
	"solea/internal/pipeline"
	"solea/internal/preflight"
	"solea/internal/runlock"
	"solea/internal/services"
	"solea/internal/services/ytdlp"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Download, slice and write every chunk in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, ctx)
		},
	}
}

func runProcess(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if failed := preflight.Failed(preflight.RunAll(cfg, preflight.ModeProcess)); len(failed) > 0 {
		return preflightError(failed)
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			return fmt.Errorf("another solea run is using %s", cfg.Paths.RootFolder)
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	groups, err := manifest.LoadGroups(cfg.Paths.Manifest)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	runCtx := services.WithRunID(cmd.Context(), runID)
	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runLogger := logging.WithContext(runCtx, logger)

	codec := audio.NewCodec(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	downloader := ytdlp.NewService(downloadConfig(cfg), codec, runLogger)
	recorder := metrics.NewRecorder()

	processor := pipeline.NewProcessor(pipeline.Options{
		Root:       cfg.Paths.RootFolder,
		SampleRate: cfg.Audio.SampleRate,
		Overwrite:  cfg.Run.Overwrite,
		Workers:    cfg.Run.Workers,
	}, downloader, codec, runLogger)
	processor.WithMetrics(recorder)

	stderr := cmd.ErrOrStderr()
	progress := newGroupProgress(stderr, len(groups), cfg.Run.Progress && shouldColorize(stderr))
	processor.OnGroupDone(progress.observe)

	summary, runErr := processor.Run(runCtx, groups)
	progress.finish()

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, shouldColorize(cmd.OutOrStdout())))
	writeMetrics(runLogger, recorder, cfg.Metrics.Textfile)
	return runErr
}

func downloadConfig(cfg *config.Config) ytdlp.Config {
	return ytdlp.Config{
		Format:      cfg.Download.Format,
		Extension:   cfg.Download.Extension,
		URLTemplate: cfg.Download.URLTemplate,
		Timeout:     time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
	}
}

func writeMetrics(logger *slog.Logger, recorder *metrics.Recorder, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		logger.Warn("metrics textfile not written",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run metrics unavailable to the node exporter"),
		)
	}
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("%w: preflight failed: %s", services.ErrConfiguration, strings.Join(parts, "; "))
}
