package services

import (
	"errors"
	"fmt"
	"strings"
)

// Terminal pipeline failures. ErrImageGeneration is recorded per image and
// never fails a run on its own.
var (
	ErrEmptyTranscription = errors.New("empty transcription")
	ErrTranscription      = errors.New("transcription failed")
	ErrContextLoad        = errors.New("context load failed")
	ErrContentGeneration  = errors.New("content generation failed")
	ErrImageGeneration    = errors.New("image generation failed")
	ErrStoreWrite         = errors.New("store write failed")
	ErrMalformedJob       = errors.New("malformed job")
)

// Plumbing markers shared by stores, transports, and configuration.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes step context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Redeliverable reports whether a trigger event that failed with err should be
// offered again. Malformed input and configuration problems never heal on retry.
func Redeliverable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMalformedJob), errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return false
	default:
		return true
	}
}

// Kind returns a short label for the first marker found in err, for metrics
// and log fields.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, candidate := range []struct {
		marker error
		label  string
	}{
		{ErrMalformedJob, "malformed_job"},
		{ErrEmptyTranscription, "empty_transcription"},
		{ErrTranscription, "transcription"},
		{ErrContextLoad, "context_load"},
		{ErrContentGeneration, "content_generation"},
		{ErrImageGeneration, "image_generation"},
		{ErrStoreWrite, "store_write"},
		{ErrValidation, "validation"},
		{ErrConfiguration, "configuration"},
		{ErrNotFound, "not_found"},
		{ErrTransient, "transient"},
	} {
		if errors.Is(err, candidate.marker) {
			return candidate.label
		}
	}
	return "unknown"
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
