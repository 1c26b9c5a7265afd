package queue

import (
	"encoding/json"
	"time"
)

// Status is the scheduler-side lifecycle of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts text into a Status.
func ParseStatus(value string) (Status, bool) {
	for _, status := range allStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// Job is one queued article generation run.
type Job struct {
	ArticleID     string          `json:"articleId"`
	UserID        string          `json:"userId"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Status        Status          `json:"status"`
	PipelineState string          `json:"pipelineState,omitempty"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	Attempts      int             `json:"attempts"`
	LastHeartbeat *time.Time      `json:"lastHeartbeat,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	StartedAt     *time.Time      `json:"startedAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}

// IsTerminal reports whether the job finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Checkpoint is the durable output of one completed pipeline step.
type Checkpoint struct {
	Step        string          `json:"step"`
	Output      json.RawMessage `json:"output"`
	CompletedAt time.Time       `json:"completedAt"`
}
