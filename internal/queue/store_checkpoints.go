package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"voxpost/internal/sqlitedb"
)

// SaveCheckpoint durably records the output of a completed step.
func (s *Store) SaveCheckpoint(ctx context.Context, articleID, step string, output json.RawMessage) error {
	if len(output) == 0 {
		output = json.RawMessage("null")
	}
	if _, err := s.exec(ctx,
		`INSERT INTO job_steps (article_id, step, output, completed_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(article_id, step) DO UPDATE SET output = excluded.output, completed_at = excluded.completed_at`,
		articleID, step, string(output), s.timestamp(),
	); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", step, err)
	}
	return nil
}

// LoadCheckpoints returns step name to output for every checkpointed step.
func (s *Store) LoadCheckpoints(ctx context.Context, articleID string) (map[string]json.RawMessage, error) {
	checkpoints, err := s.Checkpoints(ctx, articleID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(checkpoints))
	for _, cp := range checkpoints {
		out[cp.Step] = cp.Output
	}
	return out, nil
}

// Checkpoints lists a job's checkpoints in completion order.
func (s *Store) Checkpoints(ctx context.Context, articleID string) ([]Checkpoint, error) {
	rows, err := s.db.QueryContext(sqlitedb.EnsureContext(ctx),
		`SELECT step, output, completed_at FROM job_steps WHERE article_id = ? ORDER BY rowid`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []Checkpoint
	for rows.Next() {
		var (
			cp           Checkpoint
			output       string
			completedRaw string
		)
		if err := rows.Scan(&cp.Step, &output, &completedRaw); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		cp.Output = json.RawMessage(output)
		cp.CompletedAt, _ = sqlitedb.ParseTime(completedRaw)
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}
