package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voxpost/internal/config"
)

const userAgent = "voxpost/1"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyArticleCompleted(ctx context.Context, articleID, userID string) error
	NotifyArticleFailed(ctx context.Context, articleID string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyArticleCompleted(ctx context.Context, articleID, userID string) error {
	message := fmt.Sprintf("Article ready: %s", strings.TrimSpace(articleID))
	if userID = strings.TrimSpace(userID); userID != "" {
		message += fmt.Sprintf("\nUser: %s", userID)
	}
	return n.send(ctx, payload{
		title:   "voxpost - Article Ready",
		message: message,
		tags:    []string{"voxpost", "article", "completed"},
	})
}

func (n *ntfyService) NotifyArticleFailed(ctx context.Context, articleID string, err error) error {
	var builder strings.Builder
	builder.WriteString("Article failed: ")
	builder.WriteString(strings.TrimSpace(articleID))
	builder.WriteString("\n")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	return n.send(ctx, payload{
		title:    "voxpost - Article Failed",
		message:  builder.String(),
		tags:     []string{"voxpost", "article", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "voxpost - Test",
		message:  "Notification system test",
		tags:     []string{"voxpost", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyArticleCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyArticleFailed(context.Context, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
