package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voxpost/internal/config"
	"voxpost/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyArticleCompleted(context.Background(), "a1", "u1"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyArticleCompleted(ctx, "a1", "u1"); err != nil {
		t.Fatalf("NotifyArticleCompleted: %v", err)
	}
	if err := svc.NotifyArticleFailed(ctx, "a2", errors.New("transcription: quota exceeded")); err != nil {
		t.Fatalf("NotifyArticleFailed: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}

	tests := []struct {
		title    string
		tags     string
		priority string
		body     string
	}{
		{title: "voxpost - Article Ready", tags: "voxpost,article,completed", body: "Article ready: a1\nUser: u1"},
		{title: "voxpost - Article Failed", tags: "voxpost,article,error", priority: "high", body: "Article failed: a2\ntranscription: quota exceeded"},
		{title: "voxpost - Test", tags: "voxpost,test", priority: "low", body: "Notification system test"},
	}
	if len(*requests) != len(tests) {
		t.Fatalf("expected %d requests, got %d", len(tests), len(*requests))
	}
	for i, want := range tests {
		got := (*requests)[i]
		if got.title != want.title || got.tags != want.tags || got.priority != want.priority || got.body != want.body {
			t.Fatalf("request %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
