package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeQueue()
	c.normalizeLLM()
	c.normalizeTranscription()
	c.normalizeImages()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("VOXPOST_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = filepath.Join(c.Paths.DataDir, "articles.db")
	}
	var err error
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	c.Store.MongoURI = strings.TrimSpace(c.Store.MongoURI)
	if c.Store.MongoURI == "" {
		if value, ok := os.LookupEnv("MONGO_URI"); ok {
			c.Store.MongoURI = strings.TrimSpace(value)
		}
	}
	c.Store.MongoDatabase = strings.TrimSpace(c.Store.MongoDatabase)
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = defaultMongoDatabase
	}
	return nil
}

func (c *Config) normalizeQueue() {
	c.Queue.Transport = strings.ToLower(strings.TrimSpace(c.Queue.Transport))
	if c.Queue.Transport == "" {
		c.Queue.Transport = defaultTransport
	}
	c.Queue.NATSURL = strings.TrimSpace(c.Queue.NATSURL)
	if value, ok := os.LookupEnv("NATS_URL"); ok && strings.TrimSpace(value) != "" {
		c.Queue.NATSURL = strings.TrimSpace(value)
	}
	if c.Queue.NATSURL == "" {
		c.Queue.NATSURL = defaultNATSURL
	}
	c.Queue.NATSStream = defaultString(c.Queue.NATSStream, defaultNATSStream)
	c.Queue.NATSSubject = defaultString(c.Queue.NATSSubject, defaultNATSSubject)
	c.Queue.NATSDurable = defaultString(c.Queue.NATSDurable, defaultNATSDurable)
	if c.Queue.DuplicateWindowSeconds <= 0 {
		c.Queue.DuplicateWindowSeconds = defaultNATSDuplicateWindow
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = defaultString(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.Model = defaultString(c.LLM.Model, defaultLLMModel)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = apiKeyFallback(c.LLM.APIKey, "VOXPOST_LLM_API_KEY")
}

func (c *Config) normalizeTranscription() {
	c.Transcription.BaseURL = defaultString(c.Transcription.BaseURL, defaultTranscriptionBaseURL)
	c.Transcription.Model = defaultString(c.Transcription.Model, defaultTranscriptionModel)
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
	c.Transcription.APIKey = apiKeyFallback(c.Transcription.APIKey, "VOXPOST_TRANSCRIPTION_API_KEY")
	if c.Transcription.APIKey == "" {
		c.Transcription.APIKey = c.LLM.APIKey
	}
}

func (c *Config) normalizeImages() {
	c.Images.BaseURL = defaultString(c.Images.BaseURL, defaultImagesBaseURL)
	c.Images.Model = defaultString(c.Images.Model, defaultImagesModel)
	c.Images.Size = defaultString(c.Images.Size, defaultImagesSize)
	if c.Images.TimeoutSeconds <= 0 {
		c.Images.TimeoutSeconds = defaultImagesTimeout
	}
	if c.Images.MaxConcurrency <= 0 {
		c.Images.MaxConcurrency = defaultImagesMaxConcurrency
	}
	c.Images.APIKey = apiKeyFallback(c.Images.APIKey, "VOXPOST_IMAGES_API_KEY")
	if c.Images.APIKey == "" {
		c.Images.APIKey = c.LLM.APIKey
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.WorkerCount <= 0 {
		c.Workflow.WorkerCount = defaultWorkflowWorkerCount
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// apiKeyFallback resolves a key from config, then the specific env var, then OPENAI_API_KEY.
func apiKeyFallback(value, envName string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	if env, ok := os.LookupEnv(envName); ok && strings.TrimSpace(env) != "" {
		return strings.TrimSpace(env)
	}
	if env, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
