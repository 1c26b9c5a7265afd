package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voxpost/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage the generation queue",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := ctx.client().ListJobs(cmd.Context(), statuses)
			if err != nil {
				return ctx.wrapDialError(err)
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					job.ArticleID,
					job.UserID,
					colorizeStatus(job.Status, jobStatusKind(job.Status), colorize),
					dashIfEmpty(job.PipelineState),
					strconv.Itoa(job.Attempts),
					dashIfEmpty(job.ErrorMessage),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Article", "User", "Status", "State", "Attempts", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (pending, running, completed, failed)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <article-id>",
		Short: "Show a job and its completed steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := ctx.client().GetJob(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return ctx.wrapDialError(err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			job := detail.Job
			for _, line := range renderSectionHeader("Job "+job.ArticleID, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(job.Status), job.Status, colorize))
			fmt.Fprintln(out, renderStatusLine("State", statusInfo, dashIfEmpty(job.PipelineState), colorize))
			fmt.Fprintln(out, renderStatusLine("User", statusInfo, job.UserID, colorize))
			fmt.Fprintln(out, renderStatusLine("Attempts", statusInfo, strconv.Itoa(job.Attempts), colorize))
			if job.ErrorMessage != "" {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
			}
			if len(detail.Checkpoints) == 0 {
				fmt.Fprintln(out, renderStatusLine("Steps", statusInfo, "none completed", colorize))
				return nil
			}
			rows := make([][]string, 0, len(detail.Checkpoints))
			for _, cp := range detail.Checkpoints {
				rows = append(rows, []string{cp.Step, cp.CompletedAt, strconv.Itoa(len(cp.Output))})
			}
			fmt.Fprintln(out, renderTable([]string{"Step", "Completed", "Bytes"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <article-id>",
		Short: "Retry a failed job from its last checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			count, err := ctx.client().RetryJob(cmd.Context(), id)
			if err != nil {
				return ctx.wrapDialError(err)
			}
			out := cmd.OutOrStdout()
			if count == 0 {
				fmt.Fprintf(out, "Job %s was not requeued\n", id)
				return nil
			}
			fmt.Fprintf(out, "Job %s returned to pending\n", id)
			return nil
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed jobs and their checkpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := ctx.client().ClearCompleted(cmd.Context())
			if err != nil {
				return ctx.wrapDialError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed job(s)\n", count)
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return ctx.wrapDialError(err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprint(out, renderStatus(status, colorize))
			return nil
		},
	}
}

func renderStatus(status *api.Status, colorize bool) string {
	var b strings.Builder
	for _, line := range renderSectionHeader("voxpost", colorize) {
		b.WriteString(line + "\n")
	}
	workflowKind, workflowText := statusOK, "running"
	if !status.Workflow.Running {
		workflowKind, workflowText = statusWarn, "stopped"
	}
	b.WriteString(renderStatusLine("Workers", workflowKind,
		fmt.Sprintf("%s (%d workers, %d active)", workflowText, status.Workflow.Workers, len(status.Workflow.Active)), colorize) + "\n")
	b.WriteString(renderStatusLine("Transport", statusInfo, status.Transport, colorize) + "\n")
	b.WriteString(renderStatusLine("Store", statusInfo, status.Store, colorize) + "\n")
	if status.Version != "" {
		b.WriteString(renderStatusLine("Version", statusInfo, status.Version, colorize) + "\n")
	}
	if status.Workflow.LastError != "" {
		b.WriteString(renderStatusLine("Last error", statusError, status.Workflow.LastError, colorize) + "\n")
	}

	if len(status.Workflow.QueueStats) == 0 {
		b.WriteString(renderStatusLine("Queue", statusInfo, "empty", colorize) + "\n")
		return b.String()
	}
	rows := make([][]string, 0, len(status.Workflow.QueueStats))
	for _, key := range api.SortedStatuses(status.Workflow.QueueStats) {
		rows = append(rows, []string{titleCase(key), strconv.Itoa(status.Workflow.QueueStats[key])})
	}
	b.WriteString(renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}) + "\n")
	return b.String()
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
