package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"voxpost/internal/config"
)

func clearAdapterEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENAI_API_KEY",
		"VOXPOST_LLM_API_KEY",
		"VOXPOST_TRANSCRIPTION_API_KEY",
		"VOXPOST_IMAGES_API_KEY",
		"VOXPOST_API_TOKEN",
		"NATS_URL",
		"MONGO_URI",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaultConfigExpandsPathsAndUsesEnvKey(t *testing.T) {
	clearAdapterEnv(t)
	t.Setenv("VOXPOST_LLM_API_KEY", "llm-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "voxpost")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Store.SQLitePath != filepath.Join(wantData, "articles.db") {
		t.Fatalf("unexpected sqlite path: %q", cfg.Store.SQLitePath)
	}
	if cfg.QueueDBPath() != filepath.Join(wantData, "queue.db") {
		t.Fatalf("unexpected queue db path: %q", cfg.QueueDBPath())
	}
	if cfg.API.Bind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.LLM.APIKey != "llm-key" {
		t.Fatalf("expected llm key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Transcription.APIKey != "llm-key" {
		t.Fatalf("expected transcription key to fall back to llm key, got %q", cfg.Transcription.APIKey)
	}
	if cfg.Images.APIKey != "llm-key" {
		t.Fatalf("expected images key to fall back to llm key, got %q", cfg.Images.APIKey)
	}
	if cfg.Images.MaxConcurrency != config.Default().Images.MaxConcurrency {
		t.Fatalf("unexpected image concurrency: %d", cfg.Images.MaxConcurrency)
	}
	if cfg.Store.Backend != config.StoreBackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.Store.Backend)
	}
	if cfg.Queue.Transport != config.TransportLocal {
		t.Fatalf("expected local transport, got %q", cfg.Queue.Transport)
	}
	if err := cfg.ValidateAdapters(); err != nil {
		t.Fatalf("ValidateAdapters: %v", err)
	}
}

func TestLoadCustomPathOverridesValues(t *testing.T) {
	clearAdapterEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "voxpost.toml")
	contents := `
[paths]
data_dir = "~/vox"

[store]
backend = "MONGO"
mongo_uri = "mongodb://localhost:27017"

[queue]
transport = "nats"
nats_subject = "custom.subject"

[llm]
api_key = "file-key"
model = "custom-model"

[images]
api_key = "image-key"
max_concurrency = 2

[notifications]
ntfy_topic = " https://ntfy.example/voxpost "
request_timeout = 0

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "vox") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "voxpost", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Store.Backend != config.StoreBackendMongo {
		t.Fatalf("expected mongo backend, got %q", cfg.Store.Backend)
	}
	if cfg.Queue.Transport != config.TransportNATS || cfg.Queue.NATSSubject != "custom.subject" {
		t.Fatalf("unexpected queue config: %+v", cfg.Queue)
	}
	if cfg.Queue.NATSStream != "ARTICLES" {
		t.Fatalf("expected default stream, got %q", cfg.Queue.NATSStream)
	}
	if cfg.LLM.Model != "custom-model" || cfg.LLM.APIKey != "file-key" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Images.APIKey != "image-key" || cfg.Images.MaxConcurrency != 2 {
		t.Fatalf("unexpected images config: %+v", cfg.Images)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/voxpost" || cfg.Notifications.RequestTimeout != 10 {
		t.Fatalf("unexpected notifications config: %+v", cfg.Notifications)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearAdapterEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "shared")
	t.Setenv("VOXPOST_IMAGES_API_KEY", "images-only")
	t.Setenv("VOXPOST_API_TOKEN", " secret ")
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("MONGO_URI", "mongodb://db:27017")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "shared" || cfg.Transcription.APIKey != "shared" {
		t.Fatalf("expected shared key fallback, got llm=%q transcription=%q", cfg.LLM.APIKey, cfg.Transcription.APIKey)
	}
	if cfg.Images.APIKey != "images-only" {
		t.Fatalf("expected images key from env, got %q", cfg.Images.APIKey)
	}
	if cfg.API.Token != "secret" {
		t.Fatalf("expected trimmed api token, got %q", cfg.API.Token)
	}
	if cfg.Queue.NATSURL != "nats://broker:4222" {
		t.Fatalf("expected NATS url from env, got %q", cfg.Queue.NATSURL)
	}
	if cfg.Store.MongoURI != "mongodb://db:27017" {
		t.Fatalf("expected mongo uri from env, got %q", cfg.Store.MongoURI)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_llm_api_key_here") {
		t.Fatalf("sample config missing placeholder llm key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "voxpost") {
		t.Fatalf("expected data dir to contain voxpost, got %q", cfg.Paths.DataDir)
	}
	if cfg.Images.MaxConcurrency != 4 {
		t.Fatalf("expected sample image concurrency 4, got %d", cfg.Images.MaxConcurrency)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown backend",
			mutate: func(c *config.Config) { c.Store.Backend = "postgres" },
			want:   "store.backend",
		},
		{
			name: "mongo without uri",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.StoreBackendMongo
				c.Store.MongoURI = ""
			},
			want: "store.mongo_uri",
		},
		{
			name:   "unknown transport",
			mutate: func(c *config.Config) { c.Queue.Transport = "kafka" },
			want:   "queue.transport",
		},
		{
			name: "dotted stream",
			mutate: func(c *config.Config) {
				c.Queue.Transport = config.TransportNATS
				c.Queue.NATSStream = "bad.stream"
			},
			want: "queue.nats_stream",
		},
		{
			name:   "too many image workers",
			mutate: func(c *config.Config) { c.Images.MaxConcurrency = 64 },
			want:   "images.max_concurrency",
		},
		{
			name:   "zero workers",
			mutate: func(c *config.Config) { c.Workflow.WorkerCount = 0 },
			want:   "workflow.worker_count",
		},
		{
			name: "heartbeat timeout not above interval",
			mutate: func(c *config.Config) {
				c.Workflow.HeartbeatInterval = 30
				c.Workflow.HeartbeatTimeout = 30
			},
			want: "heartbeat_timeout",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "articles.db")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateAdaptersRequiresKeys(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateAdapters(); err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm.api_key error, got %v", err)
	}
	cfg.LLM.APIKey = "a"
	if err := cfg.ValidateAdapters(); err == nil || !strings.Contains(err.Error(), "transcription.api_key") {
		t.Fatalf("expected transcription.api_key error, got %v", err)
	}
	cfg.Transcription.APIKey = "b"
	if err := cfg.ValidateAdapters(); err == nil || !strings.Contains(err.Error(), "images.api_key") {
		t.Fatalf("expected images.api_key error, got %v", err)
	}
	cfg.Images.APIKey = "c"
	if err := cfg.ValidateAdapters(); err != nil {
		t.Fatalf("expected adapters valid, got %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}
