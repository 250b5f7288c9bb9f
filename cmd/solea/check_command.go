package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"solea/internal/audit"
	"solea/internal/manifest"
	"solea/internal/media/audio"
	"solea/internal/metrics"
	"solea/internal/preflight"
)

type checkOptions struct {
	truncate bool
	verify   bool
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report chunks whose audio or notes file is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.truncate, "truncate", false, "Empty the missing-file logs before checking")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Probe existing chunk audio and compare its sample rate")
	return cmd
}

func runCheck(cmd *cobra.Command, ctx *commandContext, opts checkOptions) error {
	cfg, err := ctx.ensureConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if failed := preflight.Failed(preflight.RunAll(cfg, preflight.ModeCheck)); len(failed) > 0 {
		return preflightError(failed)
	}

	groups, err := manifest.LoadGroups(cfg.Paths.Manifest)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewRecorder()
	auditor := audit.New(audit.Options{
		Root:            cfg.Paths.RootFolder,
		MissingAudioLog: cfg.Audit.MissingChunksLog,
		MissingNotesLog: cfg.Audit.MissingNotesLog,
		Truncate:        cfg.Audit.TruncateLogs || opts.truncate,
		Verify:          opts.verify,
		SampleRate:      cfg.Audio.SampleRate,
	}, logger)
	auditor.WithMetrics(recorder)
	if opts.verify {
		auditor.WithProber(audio.NewCodec(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
	}

	report, err := auditor.Run(runCtx, groups)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderReport(report, cfg.Audit.MissingChunksLog, cfg.Audit.MissingNotesLog, shouldColorize(out)))
	writeMetrics(logger, recorder, cfg.Metrics.Textfile)
	return nil
}
