package daemon

import (
	"log/slog"

	"voxpost/internal/article"
	"voxpost/internal/config"
	"voxpost/internal/pipeline"
	"voxpost/internal/queue"
	"voxpost/internal/services/imagegen"
	"voxpost/internal/services/llm"
	"voxpost/internal/services/transcribe"
	"voxpost/internal/services/writer"
)

// BuildOrchestrator wires the remote AI adapters described by cfg into a
// pipeline that checkpoints into store and writes articles to articles.
func BuildOrchestrator(cfg *config.Config, store *queue.Store, articles article.Store, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Model:          cfg.Transcription.Model,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
	})
	images := imagegen.NewClient(imagegen.Config{
		APIKey:         cfg.Images.APIKey,
		BaseURL:        cfg.Images.BaseURL,
		Model:          cfg.Images.Model,
		Size:           cfg.Images.Size,
		TimeoutSeconds: cfg.Images.TimeoutSeconds,
	})

	return pipeline.New(pipeline.Dependencies{
		Articles:    articles,
		Checkpoints: store,
		Transcriber: transcriber,
		Writer:      writer.New(completer),
		Images:      images,
		Logger:      logger,
	}, pipeline.WithImageConcurrency(cfg.Images.MaxConcurrency))
}
