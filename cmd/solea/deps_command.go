package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"solea/internal/deps"
	"solea/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Report the external binaries solea needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			statuses := deps.Describe(cmd.Context(), preflight.CheckSystemDeps(cfg))

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, s := range statuses {
				kind := statusOK
				msg := s.Detail
				switch {
				case !s.Available && s.Optional:
					kind = statusWarn
				case !s.Available:
					kind = statusError
				}
				if msg == "" {
					msg = s.Path
				}
				fmt.Fprintln(out, renderStatusLine(s.Name, kind, msg, colorize))
			}

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				rows = append(rows, []string{s.Name, s.Command, yesNo(s.Available), s.Path, s.Description})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Command", "Found", "Path", "Purpose"}, rows, nil, nil))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, s := range missing {
					names = append(names, s.Command)
				}
				return fmt.Errorf("missing required binaries: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}
}
