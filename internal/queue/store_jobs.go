package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"voxpost/internal/services"
	"voxpost/internal/sqlitedb"
)

// Enqueue records a pending job for articleID. It reports created=false, with
// no error, when a job for the article already exists.
func (s *Store) Enqueue(ctx context.Context, articleID, userID string, payload json.RawMessage) (bool, error) {
	if strings.TrimSpace(articleID) == "" || strings.TrimSpace(userID) == "" {
		return false, services.Wrap(services.ErrValidation, "", "enqueue", "article id and user id are required", nil)
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return false, services.Wrap(services.ErrValidation, "", "enqueue", "payload must be valid JSON", nil)
	}
	now := s.timestamp()
	res, err := s.exec(ctx,
		`INSERT INTO jobs (article_id, user_id, payload, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(article_id) DO NOTHING`,
		articleID, userID, string(payload), StatusPending, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("enqueue job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enqueue rows affected: %w", err)
	}
	return affected == 1, nil
}

// Get returns the job for articleID, or nil when none exists.
func (s *Store) Get(ctx context.Context, articleID string) (*Job, error) {
	query, args, err := sq.Select(jobColumns...).From("jobs").Where(sq.Eq{"article_id": articleID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	job, err := scanJob(s.db.QueryRowContext(sqlitedb.EnsureContext(ctx), query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// NextPending returns the oldest pending job, or nil when the queue is idle.
func (s *Store) NextPending(ctx context.Context) (*Job, error) {
	query, args, err := sq.Select(jobColumns...).
		From("jobs").
		Where(sq.Eq{"status": StatusPending}).
		OrderBy("created_at", "article_id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	job, err := scanJob(s.db.QueryRowContext(sqlitedb.EnsureContext(ctx), query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending job: %w", err)
	}
	return job, nil
}

// Claim moves a pending job to running. It returns false when another worker
// claimed it first or the job is no longer pending.
func (s *Store) Claim(ctx context.Context, articleID string) (bool, error) {
	now := s.timestamp()
	res, err := s.exec(ctx,
		`UPDATE jobs
         SET status = ?, attempts = attempts + 1, last_heartbeat = ?, started_at = ?,
             error_message = NULL, updated_at = ?
         WHERE article_id = ? AND status = ?`,
		StatusRunning, now, now, now, articleID, StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// List returns jobs, oldest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	builder := sq.Select(jobColumns...).From("jobs").OrderBy("created_at", "article_id")
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		builder = builder.Where(sq.Eq{"status": values})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(sqlitedb.EnsureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Remove deletes a job and its checkpoints.
func (s *Store) Remove(ctx context.Context, articleID string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM jobs WHERE article_id = ?`, articleID)
	if err != nil {
		return false, fmt.Errorf("remove job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ClearCompleted deletes completed jobs and their checkpoints.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM jobs WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed jobs: %w", err)
	}
	return res.RowsAffected()
}
