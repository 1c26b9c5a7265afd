package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxpost/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		articleID string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if lines < 0 {
				return fmt.Errorf("--lines must be zero or positive")
			}
			out := cmd.OutOrStdout()
			return logs.Tail(cmd.Context(), logs.DaemonLogPath(cfg), logs.Options{
				Lines:  lines,
				Follow: follow,
				Filter: logs.Containing(articleID),
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of backlog lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&articleID, "article", "", "Only show lines mentioning this article id")
	return cmd
}
