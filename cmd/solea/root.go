package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &runFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:   "solea",
		Short: "Build a chunked audio and note dataset from a manifest",
		Long: "solea downloads the audio referenced by a manifest, slices it into the\n" +
			"listed chunks and writes audio.flac and notes.tsv per chunk. With\n" +
			"--check-dataset it reports missing chunk files instead.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.checkDataset {
				return runCheck(cmd, ctx, checkOptions{})
			}
			return runProcess(cmd, ctx)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format (console or json)")
	pf.StringVar(&flags.rootFolder, "root-folder", "", "Output directory for song and chunk folders")
	pf.StringVar(&flags.manifestPath, "json-file", "", "Manifest file listing the chunks to build")
	pf.IntVar(&flags.sampleRate, "sample-rate", 0, "Sample rate in Hz for every chunk")
	pf.IntVar(&flags.workers, "workers", 0, "Number of song groups processed in parallel")
	pf.BoolVar(&flags.overwrite, "overwrite", false, "Regenerate chunk directories that already exist")
	pf.BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")
	rootCmd.Flags().BoolVar(&flags.checkDataset, "check-dataset", false, "Report missing chunk files instead of processing")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newDepsCommand(ctx))

	return rootCmd
}
