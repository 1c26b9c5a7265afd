package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"voxpost/internal/article"
)

// TranscribeOutput is the transcribe checkpoint.
type TranscribeOutput struct {
	Transcription string `json:"transcription"`
}

// ContextOutput is the fetch-context checkpoint.
type ContextOutput struct {
	Preferences article.Preferences `json:"preferences"`
	StyleGuide  string              `json:"styleGuide"`
}

// ContentOutput is the generate-content checkpoint.
type ContentOutput struct {
	Document string `json:"document"`
}

// ImagesOutput is the generate-images checkpoint. Document has every
// placeholder already resolved.
type ImagesOutput struct {
	Document      string        `json:"document"`
	CoverImageURL string        `json:"coverImageUrl"`
	Images        []ImageResult `json:"images"`
}

// PersistOutput is the persist checkpoint.
type PersistOutput struct {
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completedAt"`
}

// runState accumulates step outputs for the steps that follow.
type runState struct {
	transcribe TranscribeOutput
	context    ContextOutput
	content    ContentOutput
	images     ImagesOutput
	persist    PersistOutput
}

func (r *runState) target(step Step) any {
	switch step {
	case StepTranscribe:
		return &r.transcribe
	case StepFetchContext:
		return &r.context
	case StepGenerateContent:
		return &r.content
	case StepGenerateImages:
		return &r.images
	case StepPersist:
		return &r.persist
	default:
		return nil
	}
}

func (r *runState) restore(step Step, raw json.RawMessage) error {
	target := r.target(step)
	if target == nil {
		return fmt.Errorf("unknown step %q", step)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode %s checkpoint: %w", step, err)
	}
	return nil
}

func (r *runState) encode(step Step) (json.RawMessage, error) {
	target := r.target(step)
	if target == nil {
		return nil, fmt.Errorf("unknown step %q", step)
	}
	return json.Marshal(target)
}
