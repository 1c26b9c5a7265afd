package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"voxpost/internal/api"
	"voxpost/internal/article"
	"voxpost/internal/pipeline"
	"voxpost/internal/queue"
	"voxpost/internal/services"
	"voxpost/internal/testsupport"
	"voxpost/internal/trigger"
)

type env struct {
	client   *api.Client
	server   *httptest.Server
	articles *article.SQLiteStore
	jobs     *queue.Store
	notified atomic.Int32
}

func newEnv(t *testing.T, token string, enqueuer trigger.Enqueuer) *env {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))
	e := &env{
		articles: testsupport.MustOpenArticleStore(t, cfg),
		jobs:     testsupport.MustOpenStore(t, cfg),
	}
	if enqueuer == nil {
		enqueuer = trigger.NewDirect(e.jobs)
	}
	router, err := api.NewRouter(api.Dependencies{
		Articles:     e.articles,
		Jobs:         e.jobs,
		Enqueuer:     enqueuer,
		Notify:       func() { e.notified.Add(1) },
		Token:        token,
		Transport:    "local",
		StoreBackend: "sqlite",
		NewID:        func() string { return "generated-id" },
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	e.client = api.NewClient(e.server.URL, token)
	return e
}

func createRequest(userID string) api.CreateArticleRequest {
	return api.CreateArticleRequest{
		UserID:        userID,
		AudioDataURI:  testsupport.AudioDataURI(testsupport.SampleAudio, ""),
		SelectedModel: pipeline.DefaultModel,
		BlogType:      "how-to",
	}
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != code {
		t.Fatalf("expected http %d, got %v", code, err)
	}
}

func TestCreateArticleAcceptsAndQueues(t *testing.T) {
	e := newEnv(t, "", nil)
	ctx := context.Background()

	resp, err := e.client.CreateArticle(ctx, createRequest("u1"))
	if err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	if resp.ArticleID != "generated-id" || resp.Status != article.StatusProcessing || !resp.Queued {
		t.Fatalf("unexpected response %+v", resp)
	}

	record, err := e.articles.Get(ctx, "u1", "generated-id")
	if err != nil {
		t.Fatalf("Get article: %v", err)
	}
	if record.Status != article.StatusProcessing || record.BlogType != "how-to" || record.Language != "en" {
		t.Fatalf("unexpected article %+v", record)
	}
	job, err := e.jobs.Get(ctx, "generated-id")
	if err != nil || job == nil || job.Status != queue.StatusPending {
		t.Fatalf("expected pending job, got %+v err=%v", job, err)
	}
}

func TestCreateArticleRejectsMalformedJob(t *testing.T) {
	e := newEnv(t, "", nil)
	req := createRequest("u1")
	req.AudioDataURI = "data:text/plain;base64,aGVsbG8="

	_, err := e.client.CreateArticle(context.Background(), req)
	expectStatus(t, err, http.StatusBadRequest)
	if _, err := e.articles.Get(context.Background(), "u1", "generated-id"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("malformed request must not create an article, got %v", err)
	}
}

func TestCreateArticleConflict(t *testing.T) {
	e := newEnv(t, "", nil)
	req := createRequest("u1")
	req.ArticleID = "a1"
	if _, err := e.client.CreateArticle(context.Background(), req); err != nil {
		t.Fatalf("first CreateArticle: %v", err)
	}
	_, err := e.client.CreateArticle(context.Background(), req)
	expectStatus(t, err, http.StatusConflict)
}

type failingEnqueuer struct{}

func (failingEnqueuer) Enqueue(context.Context, pipeline.Job) (bool, error) {
	return false, services.Wrap(services.ErrTransient, "", "publish job", "", errors.New("nats: no responders"))
}

func TestCreateArticleEnqueueFailureMarksArticleFailed(t *testing.T) {
	e := newEnv(t, "", failingEnqueuer{})
	_, err := e.client.CreateArticle(context.Background(), createRequest("u1"))
	expectStatus(t, err, http.StatusServiceUnavailable)

	record, err := e.articles.Get(context.Background(), "u1", "generated-id")
	if err != nil {
		t.Fatalf("Get article: %v", err)
	}
	if record.Status != article.StatusFailed || record.Title != pipeline.FailureTitle {
		t.Fatalf("expected failed article, got %+v", record)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	e := newEnv(t, "secret", nil)
	ctx := context.Background()

	if _, err := e.client.Status(ctx); err != nil {
		t.Fatalf("Status with token: %v", err)
	}
	_, err := api.NewClient(e.server.URL, "").Status(ctx)
	expectStatus(t, err, http.StatusUnauthorized)
	_, err = api.NewClient(e.server.URL, "wrong").Status(ctx)
	expectStatus(t, err, http.StatusUnauthorized)

	resp, err := http.Get(e.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics must be served without a token, got %d", resp.StatusCode)
	}
}

func TestArticlesAreScopedByUser(t *testing.T) {
	e := newEnv(t, "", nil)
	ctx := context.Background()
	if _, err := e.client.CreateArticle(ctx, createRequest("u1")); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}

	if _, err := e.client.GetArticle(ctx, "u2", "generated-id"); !api.IsNotFound(err) {
		t.Fatalf("expected not found for another user, got %v", err)
	}
	list, err := e.client.ListArticles(ctx, "u1", 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListArticles: %v %v", list, err)
	}
	other, err := e.client.ListArticles(ctx, "u2", 0)
	if err != nil || len(other) != 0 {
		t.Fatalf("expected empty list for u2, got %v %v", other, err)
	}
}

func TestPutPreferencesAndStyleProfile(t *testing.T) {
	e := newEnv(t, "", nil)
	base := e.server.URL + "/api/users/u1"

	resp := doJSON(t, http.MethodPut, base+"/preferences", `{"tone":"warm","headingStyle":"sentence","emojiPolicy":"none"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT preferences: %d", resp.StatusCode)
	}
	prefs, err := e.articles.GetPreferences(context.Background(), "u1")
	if err != nil || prefs == nil || prefs.Tone != "warm" {
		t.Fatalf("unexpected preferences %+v err=%v", prefs, err)
	}

	resp = doJSON(t, http.MethodPut, base+"/styles/p1", `{"name":"Casual","trainingSummary":"short sentences"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT style: %d", resp.StatusCode)
	}
	profile, err := e.articles.GetStyleProfile(context.Background(), "u1", "p1")
	if err != nil || profile == nil || profile.TrainingSummary != "short sentences" {
		t.Fatalf("unexpected profile %+v err=%v", profile, err)
	}

	resp = doJSON(t, http.MethodPut, base+"/styles/default", `{"name":"x"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected reserved id rejection, got %d", resp.StatusCode)
	}
}

func TestJobDetailAndRetryKeepCheckpoints(t *testing.T) {
	e := newEnv(t, "", nil)
	ctx := context.Background()
	req := createRequest("u1")
	req.ArticleID = "a1"
	if _, err := e.client.CreateArticle(ctx, req); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}

	if _, err := e.client.RetryJob(ctx, "a1"); err == nil {
		t.Fatal("expected pending job retry to be rejected")
	} else {
		expectStatus(t, err, http.StatusConflict)
	}

	if _, err := e.jobs.Claim(ctx, "a1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := e.jobs.SaveCheckpoint(ctx, "a1", "transcribe", []byte(`{"transcription":"hi"}`)); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if err := e.jobs.Fail(ctx, "a1", "content generation failed"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := e.articles.Update(ctx, "u1", "a1", article.Failed(pipeline.FailureTitle, "content generation failed")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	detail, err := e.client.GetJob(ctx, "a1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if detail.Job.Status != "failed" || len(detail.Checkpoints) != 1 || detail.Job.Steps[0] != "transcribe" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	count, err := e.client.RetryJob(ctx, "a1")
	if err != nil || count != 1 {
		t.Fatalf("RetryJob: count=%d err=%v", count, err)
	}
	if got := e.notified.Load(); got != 1 {
		t.Fatalf("expected workflow notification, got %d", got)
	}
	record, _ := e.articles.Get(ctx, "u1", "a1")
	if record.Status != article.StatusProcessing {
		t.Fatalf("expected article back in processing, got %s", record.Status)
	}
	saved, err := e.jobs.LoadCheckpoints(ctx, "a1")
	if err != nil || len(saved) != 1 {
		t.Fatalf("checkpoints must survive retry: %v %v", saved, err)
	}

	if _, err := e.client.GetJob(ctx, "missing"); !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAndClearJobs(t *testing.T) {
	e := newEnv(t, "", nil)
	ctx := context.Background()
	testsupport.MustEnqueueJob(t, e.jobs, "a1", "u1")
	testsupport.MustEnqueueJob(t, e.jobs, "a2", "u1")
	if _, err := e.jobs.Claim(ctx, "a1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := e.jobs.Complete(ctx, "a1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	pending, err := e.client.ListJobs(ctx, []string{"pending"})
	if err != nil || len(pending) != 1 || pending[0].ArticleID != "a2" {
		t.Fatalf("unexpected pending jobs %+v err=%v", pending, err)
	}
	if _, err := e.client.ListJobs(ctx, []string{"archived"}); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}

	cleared, err := e.client.ClearCompleted(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearCompleted: %d %v", cleared, err)
	}
	status, err := e.client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Workflow.QueueStats["pending"] != 1 || status.Transport != "local" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	if _, err := api.NewRouter(api.Dependencies{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBaseURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8787": "http://127.0.0.1:8787",
		"0.0.0.0:8787":   "http://127.0.0.1:8787",
		":8787":          "http://127.0.0.1:8787",
		"[::]:9000":      "http://127.0.0.1:9000",
	}
	for bind, want := range tests {
		if got := api.BaseURL(bind); got != want {
			t.Fatalf("BaseURL(%q) = %q, want %q", bind, got, want)
		}
	}
}
