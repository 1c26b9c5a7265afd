package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxpost/internal/config"
	"voxpost/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		path   string
		passed bool
	}{
		{name: "ok", path: t.TempDir(), passed: true},
		{name: "missing", path: filepath.Join(t.TempDir(), "nope")},
		{name: "file", path: file},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", tc.path)
			if result.Passed != tc.passed {
				t.Fatalf("expected passed=%v, got %+v", tc.passed, result)
			}
			if result.Detail == "" {
				t.Fatal("expected non-empty detail")
			}
		})
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	ok := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "good-key", BaseURL: srv.URL, Model: "m"})
	if !ok.Passed {
		t.Fatalf("expected pass, got %s", ok.Detail)
	}
	bad := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "bad-key", BaseURL: srv.URL, Model: "m"})
	if bad.Passed || !strings.Contains(bad.Detail, "401") {
		t.Fatalf("expected 401 failure, got %+v", bad)
	}
	missing := CheckLLM(context.Background(), "LLM", config.LLM{BaseURL: srv.URL})
	if missing.Passed || missing.Detail != "API key missing" {
		t.Fatalf("expected missing key failure, got %+v", missing)
	}
}

func TestCheckNATSUnreachable(t *testing.T) {
	result := CheckNATS(context.Background(), config.Queue{NATSURL: "nats://127.0.0.1:1", NATSStream: "ARTICLES"})
	if result.Passed {
		t.Fatalf("expected failure for unreachable broker, got %+v", result)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAllLocalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.LLM.APIKey = "k"
	cfg.Transcription.APIKey = "k"
	cfg.Images.APIKey = ""

	results := RunAll(context.Background(), cfg, Options{})
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Data directory", "Log directory", "Article store (sqlite)", "Content LLM", "Transcription"} {
		if r, ok := byName[name]; !ok || !r.Passed {
			t.Fatalf("expected %s to pass, got %+v", name, r)
		}
	}
	if _, ok := byName["NATS JetStream"]; ok {
		t.Fatal("NATS check should be skipped for the local transport")
	}
	if byName["Image generation"].Passed {
		t.Fatal("expected missing image key to fail")
	}
	if !Failed(results) {
		t.Fatal("expected Failed to report the missing key")
	}
}
