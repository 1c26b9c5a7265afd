package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"voxpost/internal/article"
	"voxpost/internal/config"
	"voxpost/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenArticleStore opens the SQLite article store configured in cfg.
func MustOpenArticleStore(t testing.TB, cfg *config.Config) *article.SQLiteStore {
	t.Helper()

	store, err := article.OpenSQLite(context.Background(), cfg.Store.SQLitePath)
	if err != nil {
		t.Fatalf("article.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue enqueues a job with a minimal JSON payload.
func MustEnqueue(t testing.TB, store *queue.Store, articleID, userID string) {
	t.Helper()

	created, err := store.Enqueue(context.Background(), articleID, userID, []byte(`{"articleId":"`+articleID+`"}`))
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	if !created {
		t.Fatalf("store.Enqueue: job %s already existed", articleID)
	}
}

// JobPayload returns a valid trigger event payload for articleID.
func JobPayload(articleID, userID string) []byte {
	payload, _ := json.Marshal(map[string]string{
		"articleId":     articleID,
		"userId":        userID,
		"audioDataUri":  AudioDataURI(SampleAudio, ""),
		"selectedModel": "default",
	})
	return payload
}

// MustEnqueueJob enqueues a job carrying a valid trigger payload.
func MustEnqueueJob(t testing.TB, store *queue.Store, articleID, userID string) {
	t.Helper()

	created, err := store.Enqueue(context.Background(), articleID, userID, JobPayload(articleID, userID))
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	if !created {
		t.Fatalf("store.Enqueue: job %s already existed", articleID)
	}
}
