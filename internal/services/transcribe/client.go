package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vincent-petithory/dataurl"
	"golang.org/x/text/language"

	"voxpost/internal/services/llm"
)

const (
	defaultHTTPTimeout = 300 * time.Second
	defaultBaseURL     = "https://api.openai.com/v1/audio/transcriptions"
	defaultModel       = "whisper-1"
)

// Config captures the transcription endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client uploads audio for transcription.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      llm.RetryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy llm.RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Model:   strings.TrimSpace(cfg.Model),
		},
		httpClient: &http.Client{Timeout: timeout},
		retry:      llm.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	return client
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe returns the transcript of the audio carried by audioDataURI.
func (c *Client) Transcribe(ctx context.Context, audioDataURI, lang string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("transcribe: api key required")
	}
	audio, err := dataurl.DecodeString(audioDataURI)
	if err != nil {
		return "", fmt.Errorf("transcribe: decode data uri: %w", err)
	}
	if len(audio.Data) == 0 {
		return "", errors.New("transcribe: audio payload is empty")
	}

	var text string
	err = c.retry.Do(ctx, "transcribe", func(ctx context.Context) error {
		result, err := c.sendOnce(ctx, audio, whisperLanguage(lang))
		if err != nil {
			return err
		}
		text = result
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) sendOnce(ctx context.Context, audio *dataurl.DataURL, lang string) (string, error) {
	body, contentType, err := buildMultipart(audio, c.cfg.Model, lang)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, body)
	if err != nil {
		return "", fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcribe: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", llm.NewHTTPStatusError("transcribe", resp, raw)
	}
	var parsed transcriptionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("transcribe: decode response: %w (body: %s)", err, llm.SummarizeSnippet(string(raw)))
	}
	return parsed.Text, nil
}

func buildMultipart(audio *dataurl.DataURL, model, lang string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "audio."+fileExtension(audio.MediaType.Subtype))
	if err != nil {
		return nil, "", fmt.Errorf("transcribe: create form file: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", fmt.Errorf("transcribe: write audio: %w", err)
	}
	fields := [][2]string{{"model", model}, {"response_format", "json"}}
	if lang != "" {
		fields = append(fields, [2]string{"language", lang})
	}
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("transcribe: write field %s: %w", field[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("transcribe: close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var extensions = map[string]string{
	"mpeg":   "mp3",
	"mp3":    "mp3",
	"mp4":    "mp4",
	"x-m4a":  "m4a",
	"m4a":    "m4a",
	"wav":    "wav",
	"x-wav":  "wav",
	"wave":   "wav",
	"ogg":    "ogg",
	"webm":   "webm",
	"flac":   "flac",
	"x-flac": "flac",
}

func fileExtension(subtype string) string {
	if ext, ok := extensions[strings.ToLower(subtype)]; ok {
		return ext
	}
	return "webm"
}

// whisperLanguage reduces a BCP 47 tag to the ISO 639-1 code the endpoint
// expects. Unparseable input is dropped so the provider auto-detects.
func whisperLanguage(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tag, err := language.Parse(value)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}
