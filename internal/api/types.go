package api

import (
	"encoding/json"

	"voxpost/internal/article"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// CreateArticleRequest is the create-article action body. ArticleID is
// generated when absent.
type CreateArticleRequest struct {
	ArticleID     string `json:"articleId,omitempty"`
	UserID        string `json:"userId"`
	AudioDataURI  string `json:"audioDataUri"`
	SelectedModel string `json:"selectedModel"`
	Language      string `json:"language,omitempty"`
	BlogType      string `json:"blogType,omitempty"`
	WordCount     string `json:"wordCount,omitempty"`
}

// CreateArticleResponse acknowledges an accepted create-article action.
type CreateArticleResponse struct {
	ArticleID string         `json:"articleId"`
	UserID    string         `json:"userId"`
	Status    article.Status `json:"status"`
	Queued    bool           `json:"queued"`
}

// ArticleList wraps a user's articles, newest first.
type ArticleList struct {
	Articles []*article.Article `json:"articles"`
}

// PreferencesRequest is the body of PUT /api/users/:user/preferences.
type PreferencesRequest struct {
	Tone         string `json:"tone"`
	HeadingStyle string `json:"headingStyle"`
	EmojiPolicy  string `json:"emojiPolicy"`
}

// StyleProfileRequest is the body of PUT /api/users/:user/styles/:id.
type StyleProfileRequest struct {
	Name            string `json:"name"`
	TrainingSummary string `json:"trainingSummary"`
}

// Job describes a queued run in a transport-friendly format.
type Job struct {
	ArticleID     string   `json:"articleId"`
	UserID        string   `json:"userId"`
	Status        string   `json:"status"`
	PipelineState string   `json:"pipelineState,omitempty"`
	ErrorMessage  string   `json:"errorMessage,omitempty"`
	Attempts      int      `json:"attempts"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
	StartedAt     string   `json:"startedAt,omitempty"`
	CompletedAt   string   `json:"completedAt,omitempty"`
	Steps         []string `json:"steps,omitempty"`
}

// JobList wraps queue entries, oldest first.
type JobList struct {
	Jobs []Job `json:"jobs"`
}

// JobCheckpoint is one completed step with its stored output.
type JobCheckpoint struct {
	Step        string          `json:"step"`
	CompletedAt string          `json:"completedAt"`
	Output      json.RawMessage `json:"output,omitempty"`
}

// JobDetail is a job plus its checkpoints.
type JobDetail struct {
	Job         Job             `json:"job"`
	Checkpoints []JobCheckpoint `json:"checkpoints"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int64 `json:"count"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	Workers    int            `json:"workers"`
	Active     []string       `json:"active"`
	QueueStats map[string]int `json:"queueStats"`
	LastError  string         `json:"lastError,omitempty"`
	LastJob    *Job           `json:"lastJob,omitempty"`
}

// Status is the GET /api/status payload.
type Status struct {
	Version   string         `json:"version,omitempty"`
	Transport string         `json:"transport"`
	Store     string         `json:"store"`
	Workflow  WorkflowStatus `json:"workflow"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}
