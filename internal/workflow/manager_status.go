package workflow

import (
	"context"
	"sort"
	"time"

	"voxpost/internal/logging"
	"voxpost/internal/queue"
)

// ActiveJob is a run currently owned by a worker.
type ActiveJob struct {
	ArticleID string    `json:"articleId"`
	StartedAt time.Time `json:"startedAt"`
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool                 `json:"running"`
	Workers    int                  `json:"workers"`
	Active     []ActiveJob          `json:"active"`
	LastError  string               `json:"lastError,omitempty"`
	LastJob    *queue.Job           `json:"lastJob,omitempty"`
	QueueStats map[queue.Status]int `json:"queueStats"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, Workers: m.workers}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		copy := *m.lastJob
		summary.LastJob = &copy
	}
	summary.Active = make([]ActiveJob, 0, len(m.active))
	for id, started := range m.active {
		summary.Active = append(summary.Active, ActiveJob{ArticleID: id, StartedAt: started})
	}
	m.mu.RUnlock()

	sort.Slice(summary.Active, func(i, j int) bool {
		return summary.Active[i].StartedAt.Before(summary.Active[j].StartedAt)
	})

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) recordJob(job *queue.Job, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *job
	if runErr != nil {
		copy.Status = queue.StatusFailed
		copy.ErrorMessage = runErr.Error()
		m.lastErr = runErr
	} else {
		copy.Status = queue.StatusCompleted
	}
	m.lastJob = &copy
}

func (m *Manager) trackActive(articleID string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if active {
		m.active[articleID] = time.Now()
		return
	}
	delete(m.active, articleID)
}
