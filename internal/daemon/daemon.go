package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/nats-io/nats.go"

	"voxpost/internal/article"
	"voxpost/internal/config"
	"voxpost/internal/logging"
	"voxpost/internal/queue"
	"voxpost/internal/trigger"
	"voxpost/internal/workflow"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	root     *slog.Logger
	store    *queue.Store
	articles article.Store
	workflow *workflow.Manager
	version  string

	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	enqueuer trigger.Enqueuer
	conn     *nats.Conn
	consumer *trigger.NATSConsumer
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Transport    string
	APIAddress   string
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// Option customizes the daemon.
type Option func(*Daemon)

// WithVersion sets the version reported by /api/status.
func WithVersion(version string) Option {
	return func(d *Daemon) {
		d.version = version
	}
}

// New constructs a daemon around an opened queue, article store, and runner.
func New(cfg *config.Config, store *queue.Store, articles article.Store, runner workflow.Runner, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || articles == nil || runner == nil {
		return nil, errors.New("daemon requires config, queue store, article store, and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		root:     logger,
		store:    store,
		articles: articles,
		workflow: workflow.NewManager(cfg, store, runner, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the daemon lock, requeues interrupted jobs, and launches
// the workers, the trigger transport, and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another voxpost daemon instance is already running")
	}

	requeued, err := d.store.RequeueRunning(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("requeue interrupted jobs: %w", err)
	}
	if requeued > 0 {
		d.logger.Info("requeued jobs interrupted by a previous shutdown",
			logging.String(logging.FieldEventType, "jobs_requeued"),
			logging.Int64("count", requeued))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.startTransport(runCtx); err != nil {
		cancel()
		d.workflow.Stop()
		_ = d.lock.Unlock()
		return fmt.Errorf("start %s transport: %w", d.cfg.Queue.Transport, err)
	}
	if err := d.startAPI(runCtx); err != nil {
		cancel()
		d.stopTransport()
		d.workflow.Stop()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("voxpost daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("transport", d.cfg.Queue.Transport),
		logging.String("store", d.cfg.Store.Backend),
		logging.String("api", d.APIAddress()))
	return nil
}

// Stop stops intake first, then the workers, then returns jobs the workers
// abandoned mid-run to pending and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	srv := d.api
	d.api = nil
	d.mu.Unlock()
	srv.stop()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.stopTransport()
	d.workflow.Stop()

	requeued, err := d.store.RequeueRunning(context.Background())
	if err != nil {
		d.logger.Warn("failed to requeue interrupted jobs",
			logging.Error(err),
			logging.String(logging.FieldEventType, "requeue_failed"),
			logging.String(logging.FieldImpact, "interrupted jobs resume once reclaimed as stale"))
	} else if requeued > 0 {
		d.logger.Info("interrupted jobs returned to pending",
			logging.String(logging.FieldEventType, "jobs_requeued"),
			logging.Int64("count", requeued))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("voxpost daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases the stores.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.articles != nil {
		errs = append(errs, d.articles.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// Enqueuer returns the active trigger intake, or nil before Start.
func (d *Daemon) Enqueuer() trigger.Enqueuer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enqueuer
}

// APIAddress returns the bound HTTP address, or "" when the API is disabled.
func (d *Daemon) APIAddress() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Transport:    d.cfg.Queue.Transport,
		APIAddress:   d.APIAddress(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.cfg.QueueDBPath(),
		LockFilePath: d.lockPath,
	}
}
