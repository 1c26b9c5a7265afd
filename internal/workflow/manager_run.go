package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"voxpost/internal/logging"
	"voxpost/internal/metrics"
	"voxpost/internal/pipeline"
	"voxpost/internal/queue"
	"voxpost/internal/services"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.runner == nil {
		m.mu.Unlock()
		return errors.New("workflow runner not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	m.mu.Unlock()

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Int("workers", m.workers))
	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i)
	}
	return nil
}

// Stop terminates background processing and waits for in-flight runs.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stopped"))
}

func (m *Manager) runWorker(ctx context.Context, worker int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int(logging.FieldWorker, worker))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if worker == 0 {
			if err := m.leases.reclaimExpired(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("reclaim stale jobs failed; stuck jobs may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
					logging.String(logging.FieldErrorHint, "check queue database access"))
			}
		}

		job, err := m.claimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.handleNextJobError(ctx, logger, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}
		m.processJob(ctx, logger, job)
	}
}

// claimNext returns the next pending job this worker now owns, or nil when
// the queue is idle.
func (m *Manager) claimNext(ctx context.Context) (*queue.Job, error) {
	for {
		job, err := m.store.NextPending(ctx)
		if err != nil || job == nil {
			return nil, err
		}
		claimed, err := m.store.Claim(ctx, job.ArticleID)
		if err != nil {
			return nil, err
		}
		if claimed {
			return job, nil
		}
	}
}

func (m *Manager) processJob(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithArticleID(ctx, job.ArticleID)
	ctx = services.WithUserID(ctx, job.UserID)
	logger = logging.WithContext(ctx, logger)

	m.trackActive(job.ArticleID, true)
	metrics.ActiveWorkers.Inc()
	defer func() {
		metrics.ActiveWorkers.Dec()
		m.trackActive(job.ArticleID, false)
		m.publishQueueDepth(ctx)
	}()

	release := m.leases.hold(ctx, job.ArticleID)

	logger.Info("job claimed",
		logging.String(logging.FieldEventType, "job_claimed"),
		logging.Int("attempt", job.Attempts+1))

	runErr := m.run(ctx, job)
	release()

	if runErr != nil && errors.Is(runErr, pipeline.ErrInterrupted) {
		logger.Info("job interrupted by shutdown; it will resume on restart",
			logging.String(logging.FieldEventType, "job_interrupted"))
		return
	}

	// Terminal bookkeeping must land even while the manager is stopping.
	finishCtx := context.WithoutCancel(ctx)
	m.recordJob(job, runErr)
	if runErr == nil {
		if err := m.store.Complete(finishCtx, job.ArticleID); err != nil {
			logger.Error("failed to mark job complete", logging.Error(err),
				logging.String(logging.FieldEventType, "job_complete_failed"))
		}
		logger.Info("job completed", logging.String(logging.FieldEventType, "job_completed"))
		m.notify(finishCtx, logger, func(ctx context.Context) error {
			return m.notifier.NotifyArticleCompleted(ctx, job.ArticleID, job.UserID)
		})
		return
	}

	if err := m.store.Fail(finishCtx, job.ArticleID, strings.TrimSpace(runErr.Error())); err != nil {
		logger.Error("failed to mark job failed", logging.Error(err),
			logging.String(logging.FieldEventType, "job_fail_failed"))
	}
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.Error(runErr),
		logging.String("error_kind", services.Kind(runErr)),
		logging.String(logging.FieldErrorHint, "inspect the article's error message, then retry the job"))
	m.notify(finishCtx, logger, func(ctx context.Context) error {
		return m.notifier.NotifyArticleFailed(ctx, job.ArticleID, runErr)
	})
}

// notify delivers a notification; failures are logged and never change the
// job outcome.
func (m *Manager) notify(ctx context.Context, logger *slog.Logger, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		logging.WarnWithContext(logger, "notification delivery failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "article outcome is unaffected"))
	}
}

func (m *Manager) run(ctx context.Context, job *queue.Job) error {
	parsed, err := pipeline.ParseJob(job.Payload)
	if err != nil {
		return err
	}
	return m.runner.Run(ctx, parsed)
}

func (m *Manager) handleNextJobError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"))
	select {
	case <-ctx.Done():
	case <-time.After(m.retryDelay):
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) publishQueueDepth(ctx context.Context) {
	stats, err := m.store.Stats(context.WithoutCancel(ctx))
	if err != nil {
		return
	}
	statuses := queue.AllStatuses()
	names := make([]string, 0, len(statuses))
	counts := make(map[string]int, len(stats))
	for _, status := range statuses {
		names = append(names, string(status))
		counts[string(status)] = stats[status]
	}
	metrics.SetQueueDepth(names, counts)
}
