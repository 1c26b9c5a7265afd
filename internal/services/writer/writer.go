package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voxpost/internal/article"
	"voxpost/internal/services/llm"
)

const defaultTemperature = 0.7

// Request carries everything the model needs to write one article.
type Request struct {
	Transcript  string
	Language    string
	Preferences article.Preferences
	StyleGuide  string
	BlogType    string
	WordCount   string
}

// Completer is the subset of llm.Client used by Writer.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Writer generates article markdown.
type Writer struct {
	llm         Completer
	temperature float64
}

// Option customizes the writer.
type Option func(*Writer)

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(w *Writer) {
		w.temperature = t
	}
}

// New constructs a Writer backed by completer.
func New(completer Completer, opts ...Option) *Writer {
	w := &Writer{llm: completer, temperature: defaultTemperature}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Generate returns the article document, title first.
func (w *Writer) Generate(ctx context.Context, req Request) (string, error) {
	if w == nil || w.llm == nil {
		return "", errors.New("writer: completer unavailable")
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return "", errors.New("writer: transcript required")
	}
	content, err := w.llm.Complete(ctx, llm.Request{
		System:      SystemPrompt,
		User:        BuildUserPrompt(req),
		Temperature: w.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("writer: %w", err)
	}
	document := llm.StripCodeFence(content)
	if document == "" {
		return "", errors.New("writer: model returned an empty document")
	}
	return document, nil
}
