package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxpost/internal/queue"
	"voxpost/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Store: sqlite")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestEnqueueAndInspectArticles(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	audio := testsupport.WriteAudioFile(t, env.baseDir, "memo.ogg")

	out, _, err := runCLI(t, []string{"enqueue", audio, "--user", "u1", "--id", "a1", "--blog-type", "how-to"}, env.configPath)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	requireContains(t, out, "Queued article a1 for user u1 (audio/ogg")
	waitForJobStatus(t, env.store, "a1", queue.StatusCompleted)

	out, _, err = runCLI(t, []string{"articles", "list", "--user", "u1"}, env.configPath)
	if err != nil {
		t.Fatalf("articles list: %v", err)
	}
	requireContains(t, out, "a1")
	requireContains(t, out, "how-to")

	out, _, err = runCLI(t, []string{"articles", "show", "a1", "--user", "u1"}, env.configPath)
	if err != nil {
		t.Fatalf("articles show: %v", err)
	}
	requireContains(t, out, "(generating)")
	requireContains(t, out, "processing")

	if _, _, err := runCLI(t, []string{"articles", "show", "a1", "--user", "someone-else"}, env.configPath); err == nil {
		t.Fatal("expected another user's article lookup to fail")
	}
}

func TestEnqueueRejectsUnknownMediaType(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	path := filepath.Join(env.baseDir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text notes"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	_, _, err := runCLI(t, []string{"enqueue", path, "--user", "u1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--media-type") {
		t.Fatalf("expected media type hint, got %v", err)
	}
}

func TestJobsListShowRetryClear(t *testing.T) {
	runner := &scriptedRunner{fail: map[string]string{"bad": "content generation failed: boom"}}
	env := setupCLITestEnv(t, runner)
	audio := testsupport.WriteAudioFile(t, env.baseDir, "memo.webm")

	for _, id := range []string{"good", "bad"} {
		if _, _, err := runCLI(t, []string{"enqueue", audio, "--user", "u1", "--id", id}, env.configPath); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	waitForJobStatus(t, env.store, "good", queue.StatusCompleted)
	waitForJobStatus(t, env.store, "bad", queue.StatusFailed)

	out, _, err := runCLI(t, []string{"jobs", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "bad")
	if strings.Contains(out, "good") {
		t.Fatalf("expected status filter to hide completed job: %q", out)
	}

	out, _, err = runCLI(t, []string{"jobs", "show", "bad"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "boom")

	if _, _, err := runCLI(t, []string{"jobs", "retry", "good"}, env.configPath); err == nil {
		t.Fatal("expected retry of a completed job to be rejected")
	}
	runner.mu.Lock()
	delete(runner.fail, "bad")
	runner.mu.Unlock()
	out, _, err = runCLI(t, []string{"jobs", "retry", "bad"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	requireContains(t, out, "returned to pending")
	waitForJobStatus(t, env.store, "bad", queue.StatusCompleted)

	out, _, err = runCLI(t, []string{"jobs", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, out, "Cleared 2 completed job(s)")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Transport:")
	requireContains(t, out, "local")
	requireContains(t, out, "running")
}

func TestCommandsRequireDaemonToken(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	_, _, err := runCLI(t, []string{"--token", "wrong", "status"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestUnreachableDaemonHint(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	_, _, err := runCLI(t, []string{"--api", "http://127.0.0.1:1", "status"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "voxpost serve") {
		t.Fatalf("expected start hint, got %v", err)
	}
}
