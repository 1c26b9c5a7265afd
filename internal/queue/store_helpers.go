package queue

import (
	"database/sql"
	"time"

	"voxpost/internal/sqlitedb"
)

var jobColumns = []string{
	"article_id", "user_id", "payload", "status", "pipeline_state", "error_message",
	"attempts", "last_heartbeat", "created_at", "updated_at", "started_at", "completed_at",
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		payload      string
		status       string
		errorMessage sql.NullString
		heartbeatRaw sql.NullString
		createdRaw   string
		updatedRaw   string
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&job.ArticleID,
		&job.UserID,
		&payload,
		&status,
		&job.PipelineState,
		&errorMessage,
		&job.Attempts,
		&heartbeatRaw,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	job.Payload = []byte(payload)
	job.Status = Status(status)
	job.ErrorMessage = errorMessage.String
	job.LastHeartbeat = optionalTime(heartbeatRaw)
	job.StartedAt = optionalTime(startedRaw)
	job.CompletedAt = optionalTime(completedRaw)
	if created, err := sqlitedb.ParseTime(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := sqlitedb.ParseTime(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return &job, nil
}

func optionalTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	parsed, err := sqlitedb.ParseTime(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}
