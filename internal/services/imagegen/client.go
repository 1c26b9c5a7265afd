package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vincent-petithory/dataurl"

	"voxpost/internal/services/llm"
)

const (
	defaultHTTPTimeout = 120 * time.Second
	defaultBaseURL     = "https://api.openai.com/v1/images/generations"
	defaultModel       = "dall-e-3"
	defaultSize        = "1024x1024"
	maxPromptRunes     = 1000
)

// Config captures the image endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	TimeoutSeconds int
}

// Client requests one image per prompt.
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

// NewClient constructs an image client.
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
			Size:    strings.TrimSpace(cfg.Size),
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
	if client.cfg.Size == "" {
		client.cfg.Size = defaultSize
	}
	return client
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Generate returns a URL (or data URI) for an image matching prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = truncate(strings.TrimSpace(prompt), maxPromptRunes)
	if prompt == "" {
		return "", errors.New("imagegen: prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("imagegen: api key required")
	}
	var imageURL string
	err := c.retry.Do(ctx, "imagegen", func(ctx context.Context) error {
		result, err := c.sendOnce(ctx, prompt)
		if err != nil {
			return err
		}
		imageURL = result
		return nil
	})
	if err != nil {
		return "", err
	}
	return imageURL, nil
}

func (c *Client) sendOnce(ctx context.Context, prompt string) (string, error) {
	encoded, err := json.Marshal(generationRequest{Model: c.cfg.Model, Prompt: prompt, N: 1, Size: c.cfg.Size})
	if err != nil {
		return "", fmt.Errorf("imagegen: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("imagegen: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagegen: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("imagegen: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", llm.NewHTTPStatusError("imagegen", resp, body)
	}
	var parsed generationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("imagegen: decode response: %w", err)
	}
	for _, item := range parsed.Data {
		if u := strings.TrimSpace(item.URL); u != "" {
			return u, nil
		}
		if b64 := strings.TrimSpace(item.B64JSON); b64 != "" {
			data, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return "", fmt.Errorf("imagegen: decode b64_json: %w", err)
			}
			return dataurl.New(data, "image/png").String(), nil
		}
	}
	return "", fmt.Errorf("imagegen: response contained no image (body: %s)", llm.SummarizeSnippet(string(body)))
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
