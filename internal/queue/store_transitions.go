package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"voxpost/internal/sqlitedb"
)

// SetPipelineState records the orchestrator state a running job has reached.
func (s *Store) SetPipelineState(ctx context.Context, articleID, state string) error {
	if _, err := s.exec(ctx,
		`UPDATE jobs SET pipeline_state = ?, updated_at = ? WHERE article_id = ?`,
		state, s.timestamp(), articleID,
	); err != nil {
		return fmt.Errorf("set pipeline state: %w", err)
	}
	return nil
}

// Complete marks a job finished.
func (s *Store) Complete(ctx context.Context, articleID string) error {
	now := s.timestamp()
	if _, err := s.exec(ctx,
		`UPDATE jobs
         SET status = ?, error_message = NULL, last_heartbeat = NULL, completed_at = ?, updated_at = ?
         WHERE article_id = ?`,
		StatusCompleted, now, now, articleID,
	); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Fail marks a job failed with message.
func (s *Store) Fail(ctx context.Context, articleID, message string) error {
	now := s.timestamp()
	if _, err := s.exec(ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, last_heartbeat = NULL, completed_at = ?, updated_at = ?
         WHERE article_id = ?`,
		StatusFailed, sqlitedb.NullableString(strings.TrimSpace(message)), now, now, articleID,
	); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for a running job.
func (s *Store) UpdateHeartbeat(ctx context.Context, articleID string) error {
	now := s.timestamp()
	if _, err := s.exec(ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE article_id = ? AND status = ?`,
		now, now, articleID, StatusRunning,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStale returns running jobs whose heartbeat expired before cutoff to
// pending. Checkpoints are kept so the next run resumes.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE jobs
         SET status = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusPending, s.timestamp(), StatusRunning, sqlitedb.FormatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// RequeueRunning returns every running job to pending. The daemon calls it
// on startup and after a graceful stop, when no worker can own a running job.
func (s *Store) RequeueRunning(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE jobs SET status = ?, last_heartbeat = NULL, updated_at = ? WHERE status = ?`,
		StatusPending, s.timestamp(), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue running jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to pending, all of them when no ids are
// given. Checkpoints are kept.
func (s *Store) RetryFailed(ctx context.Context, articleIDs ...string) (int64, error) {
	where := sq.Eq{"status": string(StatusFailed)}
	if len(articleIDs) > 0 {
		where["article_id"] = articleIDs
	}
	query, args, err := sq.Update("jobs").
		SetMap(map[string]any{
			"status":         string(StatusPending),
			"error_message":  nil,
			"completed_at":   nil,
			"last_heartbeat": nil,
			"updated_at":     s.timestamp(),
		}).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed jobs: %w", err)
	}
	return res.RowsAffected()
}
