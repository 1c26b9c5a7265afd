package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voxpost/internal/config"
	"voxpost/internal/logging"
	"voxpost/internal/notifications"
	"voxpost/internal/pipeline"
	"voxpost/internal/queue"
)

// Runner executes one article generation run.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) error
}

// Manager coordinates queue processing across a pool of workers.
type Manager struct {
	store        *queue.Store
	runner       Runner
	notifier     notifications.Service
	logger       *slog.Logger
	workers      int
	pollInterval time.Duration
	retryDelay   time.Duration

	leases    *leases
	wake      chan struct{}

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
	active  map[string]time.Time
}

// NewManager constructs a workflow manager that notifies through the
// configured ntfy topic, if any.
func NewManager(cfg *config.Config, store *queue.Store, runner Runner, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, runner, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager using the supplied notifier.
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, runner Runner, logger *slog.Logger, notifier notifications.Service) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	workers := cfg.Workflow.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		store:        store,
		runner:       runner,
		notifier:     notifier,
		logger:       logger,
		workers:      workers,
		pollInterval: cfg.PollInterval(),
		retryDelay:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		leases: newLeases(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		wake:   make(chan struct{}, 1),
		active: make(map[string]time.Time),
	}
}

// Notify wakes one idle worker so a freshly enqueued job starts without
// waiting for the next poll.
func (m *Manager) Notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
