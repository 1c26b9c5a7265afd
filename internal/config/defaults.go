package config

const (
	defaultDataDir                   = "~/.local/share/voxpost"
	defaultLogDir                    = "~/.local/share/voxpost/logs"
	defaultAPIBind                   = "127.0.0.1:7490"
	defaultStoreBackend              = StoreBackendSQLite
	defaultMongoDatabase             = "voxpost"
	defaultTransport                 = TransportLocal
	defaultNATSURL                   = "nats://localhost:4222"
	defaultNATSStream                = "ARTICLES"
	defaultNATSSubject               = "articles.generate"
	defaultNATSDurable               = "voxpost-worker"
	defaultNATSDuplicateWindow       = 600
	defaultLLMBaseURL                = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel                  = "gpt-4o-mini"
	defaultLLMTimeoutSeconds         = 120
	defaultTranscriptionBaseURL      = "https://api.openai.com/v1/audio/transcriptions"
	defaultTranscriptionModel        = "whisper-1"
	defaultTranscriptionTimeout      = 300
	defaultImagesBaseURL             = "https://api.openai.com/v1/images/generations"
	defaultImagesModel               = "dall-e-3"
	defaultImagesSize                = "1024x1024"
	defaultImagesTimeout             = 120
	defaultImagesMaxConcurrency      = 4
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultWorkflowPollInterval      = 2
	defaultWorkflowErrorRetry        = 10
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultWorkflowWorkerCount       = 2
	defaultNotifyRequestTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Store: Store{
			Backend:       defaultStoreBackend,
			MongoDatabase: defaultMongoDatabase,
		},
		Queue: Queue{
			Transport:              defaultTransport,
			NATSURL:                defaultNATSURL,
			NATSStream:             defaultNATSStream,
			NATSSubject:            defaultNATSSubject,
			NATSDurable:            defaultNATSDurable,
			DuplicateWindowSeconds: defaultNATSDuplicateWindow,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			BaseURL:        defaultTranscriptionBaseURL,
			Model:          defaultTranscriptionModel,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Images: Images{
			BaseURL:        defaultImagesBaseURL,
			Model:          defaultImagesModel,
			Size:           defaultImagesSize,
			TimeoutSeconds: defaultImagesTimeout,
			MaxConcurrency: defaultImagesMaxConcurrency,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetry,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
			WorkerCount:        defaultWorkflowWorkerCount,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
