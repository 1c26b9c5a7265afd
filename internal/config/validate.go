package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

// ValidateAdapters reports missing credentials for the remote AI adapters.
// Load does not call it so CLI commands that never reach the pipeline work
// without keys; the daemon calls it before starting workers.
func (c *Config) ValidateAdapters() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/voxpost/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set VOXPOST_LLM_API_KEY or OPENAI_API_KEY, or edit %s (create with 'voxpost config init')", defaultPath)
	}
	if strings.TrimSpace(c.Transcription.APIKey) == "" {
		return errors.New("transcription.api_key is required")
	}
	if strings.TrimSpace(c.Images.APIKey) == "" {
		return errors.New("images.api_key is required")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreBackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("store.sqlite_path must be set when store.backend is sqlite")
		}
	case StoreBackendMongo:
		if strings.TrimSpace(c.Store.MongoURI) == "" {
			return errors.New("store.mongo_uri must be set when store.backend is mongo (or set MONGO_URI)")
		}
	default:
		return fmt.Errorf("store.backend: unsupported value %q (expected sqlite or mongo)", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateQueue() error {
	switch c.Queue.Transport {
	case TransportLocal:
		return nil
	case TransportNATS:
		if strings.TrimSpace(c.Queue.NATSURL) == "" {
			return errors.New("queue.nats_url must be set when queue.transport is nats")
		}
		if strings.ContainsAny(c.Queue.NATSStream, " .*>") {
			return fmt.Errorf("queue.nats_stream %q must not contain spaces, dots, or wildcards", c.Queue.NATSStream)
		}
		return nil
	default:
		return fmt.Errorf("queue.transport: unsupported value %q (expected local or nats)", c.Queue.Transport)
	}
}

func (c *Config) validateImages() error {
	if c.Images.MaxConcurrency > 32 {
		return errors.New("images.max_concurrency must be at most 32")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.worker_count":         c.Workflow.WorkerCount,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
