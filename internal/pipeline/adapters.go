package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"voxpost/internal/article"
	"voxpost/internal/services/writer"
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioDataURI, language string) (string, error)
}

// ContentGenerator writes the article document.
type ContentGenerator interface {
	Generate(ctx context.Context, req writer.Request) (string, error)
}

// ImageGenerator returns an image URL for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ArticleStore is the part of article.Store the pipeline touches.
type ArticleStore interface {
	Update(ctx context.Context, userID, articleID string, u article.Update) error
	GetPreferences(ctx context.Context, userID string) (*article.Preferences, error)
	GetStyleProfile(ctx context.Context, userID, profileID string) (*article.StyleProfile, error)
}

// CheckpointStore durably records step outputs and the current state.
// queue.Store implements it.
type CheckpointStore interface {
	LoadCheckpoints(ctx context.Context, articleID string) (map[string]json.RawMessage, error)
	SaveCheckpoint(ctx context.Context, articleID, step string, output json.RawMessage) error
	SetPipelineState(ctx context.Context, articleID, state string) error
}

var errEmptyImage = errors.New("image generator returned no url")
