package api

import (
	"sort"
	"strings"
	"time"

	"voxpost/internal/queue"
	"voxpost/internal/workflow"
)

// FromJob converts a queue job into its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ArticleID:     job.ArticleID,
		UserID:        job.UserID,
		Status:        string(job.Status),
		PipelineState: job.PipelineState,
		ErrorMessage:  strings.TrimSpace(job.ErrorMessage),
		Attempts:      job.Attempts,
		CreatedAt:     formatTime(job.CreatedAt),
		UpdatedAt:     formatTime(job.UpdatedAt),
		StartedAt:     formatTimePtr(job.StartedAt),
		CompletedAt:   formatTimePtr(job.CompletedAt),
	}
}

// FromCheckpoints converts stored step outputs.
func FromCheckpoints(checkpoints []queue.Checkpoint) []JobCheckpoint {
	out := make([]JobCheckpoint, 0, len(checkpoints))
	for _, cp := range checkpoints {
		out = append(out, JobCheckpoint{
			Step:        cp.Step,
			CompletedAt: formatTime(cp.CompletedAt),
			Output:      cp.Output,
		})
	}
	return out
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:    summary.Running,
		Workers:    summary.Workers,
		Active:     make([]string, 0, len(summary.Active)),
		QueueStats: make(map[string]int, len(summary.QueueStats)),
		LastError:  summary.LastError,
	}
	for _, active := range summary.Active {
		status.Active = append(status.Active, active.ArticleID)
	}
	for key, value := range summary.QueueStats {
		status.QueueStats[string(key)] = value
	}
	if summary.LastJob != nil {
		job := FromJob(summary.LastJob)
		status.LastJob = &job
	}
	return status
}

// SortedStatuses returns the keys of stats in lifecycle order, unknown last.
func SortedStatuses(stats map[string]int) []string {
	order := make(map[string]int)
	for i, status := range queue.AllStatuses() {
		order[string(status)] = i
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		oi, iok := order[keys[i]]
		oj, jok := order[keys[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
