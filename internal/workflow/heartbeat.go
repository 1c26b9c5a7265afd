package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"voxpost/internal/logging"
	"voxpost/internal/queue"
)

// leases keeps running jobs alive in the queue and returns jobs whose
// worker vanished (crash, kill -9) to pending so their checkpoints resume.
type leases struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration

	mu          sync.Mutex
	lastReclaim time.Time
}

func newLeases(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *leases {
	return &leases{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow-heartbeat"),
		interval: interval,
		timeout:  timeout,
	}
}

// reclaimExpired requeues jobs with no heartbeat inside the timeout. Calls
// closer together than the heartbeat interval are skipped.
func (l *leases) reclaimExpired(ctx context.Context) error {
	if l.timeout <= 0 {
		return nil
	}
	now := time.Now()
	l.mu.Lock()
	if !l.lastReclaim.IsZero() && now.Sub(l.lastReclaim) < l.interval {
		l.mu.Unlock()
		return nil
	}
	l.lastReclaim = now
	l.mu.Unlock()

	reclaimed, err := l.store.ReclaimStale(ctx, now.Add(-l.timeout))
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		l.logger.Info("returned jobs with expired heartbeats to pending",
			logging.Int64("count", reclaimed),
			logging.Duration("timeout", l.timeout),
			logging.String(logging.FieldEventType, "heartbeat_reclaimed"))
	}
	return nil
}

// hold refreshes articleID's heartbeat until the returned release func is
// called; release blocks until the refresh goroutine has exited.
func (l *leases) hold(ctx context.Context, articleID string) (release func()) {
	if l.interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	logger := logging.WithContext(ctx, l.logger)

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			err := l.store.UpdateHeartbeat(ctx, articleID)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				logger.Debug("heartbeat update cancelled")
			default:
				logging.WarnWithContext(logger, "heartbeat update failed", "heartbeat_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "job may be reclaimed and resumed by another worker"),
					logging.String(logging.FieldErrorHint, "check queue database access"))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
