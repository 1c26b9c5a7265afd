package daemon

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"voxpost/internal/article"
	"voxpost/internal/config"
	"voxpost/internal/logging"
	"voxpost/internal/queue"
)

// RunOptions configures the foreground daemon process.
type RunOptions struct {
	LogLevel string
	Version  string
}

// Run starts the daemon in the foreground and blocks until SIGINT, SIGTERM,
// or cancellation of ctx.
func Run(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.ValidateAdapters(); err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	articles, err := article.Open(signalCtx, cfg)
	if err != nil {
		store.Close()
		logger.Error("open article store", logging.Error(err), logging.String("backend", cfg.Store.Backend))
		return err
	}

	orchestrator, err := BuildOrchestrator(cfg, store, articles, logger)
	if err != nil {
		articles.Close()
		store.Close()
		return fmt.Errorf("build pipeline: %w", err)
	}
	d, err := New(cfg, store, articles, orchestrator, logger, WithVersion(opts.Version))
	if err != nil {
		articles.Close()
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration, the data directory lock, and the trigger transport"))
		return err
	}

	<-signalCtx.Done()
	logger.Info("voxpost daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}
