package services_test

import (
	"context"
	"testing"

	"voxpost/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithArticleID(ctx, "article-1")
	ctx = services.WithUserID(ctx, "user-1")
	ctx = services.WithStep(ctx, "transcribe")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ArticleIDFromContext(ctx); !ok || id != "article-1" {
		t.Fatalf("unexpected article id: %v %v", id, ok)
	}
	if id, ok := services.UserIDFromContext(ctx); !ok || id != "user-1" {
		t.Fatalf("unexpected user id: %v %v", id, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "transcribe" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStep(ctx, "")
	ctx = services.WithArticleID(ctx, "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
	if _, ok := services.ArticleIDFromContext(ctx); ok {
		t.Fatal("expected no article id value")
	}
}
