package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"voxpost/internal/queue"
	"voxpost/internal/services"
	"voxpost/internal/testsupport"
)

func TestEnqueueIsIdempotentOnArticleID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created, err := store.Enqueue(ctx, "a1", "u1", json.RawMessage(`{"articleId":"a1"}`))
	if err != nil || !created {
		t.Fatalf("first enqueue: created=%v err=%v", created, err)
	}
	created, err = store.Enqueue(ctx, "a1", "u1", json.RawMessage(`{"articleId":"a1","other":true}`))
	if err != nil || created {
		t.Fatalf("second enqueue should be a no-op: created=%v err=%v", created, err)
	}

	job, err := store.Get(ctx, "a1")
	if err != nil || job == nil {
		t.Fatalf("Get: %v %v", job, err)
	}
	if job.Status != queue.StatusPending || string(job.Payload) != `{"articleId":"a1"}` {
		t.Fatalf("unexpected job %+v payload=%s", job, job.Payload)
	}
}

func TestEnqueueValidatesInput(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	tests := []struct {
		name      string
		articleID string
		userID    string
		payload   string
	}{
		{"missing article", "", "u1", `{}`},
		{"missing user", "a1", " ", `{}`},
		{"bad payload", "a1", "u1", `{not json`},
		{"empty payload", "a1", "u1", ``},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Enqueue(ctx, tc.articleID, tc.userID, json.RawMessage(tc.payload))
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNextPendingAndClaim(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	next, err := store.NextPending(ctx)
	if err != nil || next != nil {
		t.Fatalf("expected empty queue, got %+v %v", next, err)
	}

	testsupport.MustEnqueue(t, store, "a1", "u1")
	time.Sleep(2 * time.Millisecond)
	testsupport.MustEnqueue(t, store, "a2", "u1")

	next, err = store.NextPending(ctx)
	if err != nil || next == nil || next.ArticleID != "a1" {
		t.Fatalf("expected oldest job a1, got %+v %v", next, err)
	}

	claimed, err := store.Claim(ctx, "a1")
	if err != nil || !claimed {
		t.Fatalf("Claim: claimed=%v err=%v", claimed, err)
	}
	claimed, err = store.Claim(ctx, "a1")
	if err != nil || claimed {
		t.Fatalf("second claim must lose: claimed=%v err=%v", claimed, err)
	}

	job, _ := store.Get(ctx, "a1")
	if job.Status != queue.StatusRunning || job.Attempts != 1 || job.LastHeartbeat == nil || job.StartedAt == nil {
		t.Fatalf("unexpected claimed job %+v", job)
	}

	next, _ = store.NextPending(ctx)
	if next == nil || next.ArticleID != "a2" {
		t.Fatalf("expected a2 to be next, got %+v", next)
	}
}

func TestCheckpointsRoundTripInOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustEnqueue(t, store, "a1", "u1")

	if err := store.SaveCheckpoint(ctx, "a1", "transcribe", json.RawMessage(`{"transcription":"hi"}`)); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if err := store.SaveCheckpoint(ctx, "a1", "fetch-context", json.RawMessage(`{"styleGuide":""}`)); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	loaded, err := store.LoadCheckpoints(ctx, "a1")
	if err != nil {
		t.Fatalf("LoadCheckpoints: %v", err)
	}
	if len(loaded) != 2 || string(loaded["transcribe"]) != `{"transcription":"hi"}` {
		t.Fatalf("unexpected checkpoints %v", loaded)
	}

	list, err := store.Checkpoints(ctx, "a1")
	if err != nil || len(list) != 2 || list[0].Step != "transcribe" || list[1].Step != "fetch-context" {
		t.Fatalf("unexpected checkpoint order %+v %v", list, err)
	}

	empty, err := store.LoadCheckpoints(ctx, "other")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no checkpoints for unknown job, got %v %v", empty, err)
	}
}

func TestCheckpointRequiresJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.SaveCheckpoint(context.Background(), "ghost", "transcribe", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected foreign key failure for unknown job")
	}
}

func TestCompleteAndFail(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustEnqueue(t, store, "a1", "u1")
	testsupport.MustEnqueue(t, store, "a2", "u1")

	if err := store.SetPipelineState(ctx, "a1", "ImagesResolved"); err != nil {
		t.Fatalf("SetPipelineState: %v", err)
	}
	if err := store.Complete(ctx, "a1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := store.Fail(ctx, "a2", "  content generation failed  "); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	done, _ := store.Get(ctx, "a1")
	if done.Status != queue.StatusCompleted || done.PipelineState != "ImagesResolved" || done.CompletedAt == nil || !done.IsTerminal() {
		t.Fatalf("unexpected completed job %+v", done)
	}
	failed, _ := store.Get(ctx, "a2")
	if failed.Status != queue.StatusFailed || failed.ErrorMessage != "content generation failed" {
		t.Fatalf("unexpected failed job %+v", failed)
	}
}

func TestRetryFailedKeepsCheckpoints(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, id := range []string{"a1", "a2", "a3"} {
		testsupport.MustEnqueue(t, store, id, "u1")
	}
	if err := store.SaveCheckpoint(ctx, "a1", "transcribe", json.RawMessage(`{"transcription":"x"}`)); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	for _, id := range []string{"a1", "a2"} {
		if err := store.Fail(ctx, id, "boom"); err != nil {
			t.Fatalf("Fail %s: %v", id, err)
		}
	}

	n, err := store.RetryFailed(ctx, "a1", "a3")
	if err != nil || n != 1 {
		t.Fatalf("expected one retried job, got n=%d err=%v", n, err)
	}
	job, _ := store.Get(ctx, "a1")
	if job.Status != queue.StatusPending || job.ErrorMessage != "" || job.CompletedAt != nil {
		t.Fatalf("unexpected retried job %+v", job)
	}
	checkpoints, _ := store.LoadCheckpoints(ctx, "a1")
	if _, ok := checkpoints["transcribe"]; !ok {
		t.Fatal("expected checkpoint to survive retry")
	}

	n, err = store.RetryFailed(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected remaining failed job to retry, got n=%d err=%v", n, err)
	}
}

func TestReclaimStale(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustEnqueue(t, store, "a1", "u1")
	if _, err := store.Claim(ctx, "a1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.UpdateHeartbeat(ctx, "a1"); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	n, err := store.ReclaimStale(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("fresh heartbeat must not be reclaimed: n=%d err=%v", n, err)
	}
	n, err = store.ReclaimStale(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expected stale job reclaimed: n=%d err=%v", n, err)
	}
	job, _ := store.Get(ctx, "a1")
	if job.Status != queue.StatusPending || job.LastHeartbeat != nil || job.Attempts != 1 {
		t.Fatalf("unexpected reclaimed job %+v", job)
	}
}

func TestListStatsRemoveAndClear(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, id := range []string{"a1", "a2", "a3"} {
		testsupport.MustEnqueue(t, store, id, "u1")
	}
	_ = store.Complete(ctx, "a1")
	_ = store.Fail(ctx, "a2", "x")

	failed, err := store.List(ctx, queue.StatusFailed)
	if err != nil || len(failed) != 1 || failed[0].ArticleID != "a2" {
		t.Fatalf("unexpected failed list %+v %v", failed, err)
	}
	all, err := store.List(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d %v", len(all), err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusCompleted] != 1 || stats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearCompleted: %d %v", cleared, err)
	}
	removed, err := store.Remove(ctx, "a2")
	if err != nil || !removed {
		t.Fatalf("Remove: %v %v", removed, err)
	}
	removed, _ = store.Remove(ctx, "a2")
	if removed {
		t.Fatal("expected second remove to report false")
	}
	remaining, _ := store.List(ctx)
	if len(remaining) != 1 || remaining[0].ArticleID != "a3" {
		t.Fatalf("unexpected remaining jobs %+v", remaining)
	}
}

func TestRequeueRunning(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustEnqueue(t, store, "a1", "u1")
	testsupport.MustEnqueue(t, store, "a2", "u1")
	_, _ = store.Claim(ctx, "a1")

	n, err := store.RequeueRunning(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RequeueRunning: n=%d err=%v", n, err)
	}
	job, _ := store.Get(ctx, "a1")
	if job.Status != queue.StatusPending || job.LastHeartbeat != nil || job.Attempts != 1 {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := queue.ParseStatus("running"); !ok || s != queue.StatusRunning {
		t.Fatalf("ParseStatus(running) = %v %v", s, ok)
	}
	if _, ok := queue.ParseStatus("archived"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if len(queue.AllStatuses()) != 4 {
		t.Fatal("expected four statuses")
	}
}
