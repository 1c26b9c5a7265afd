package writer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voxpost/internal/article"
	"voxpost/internal/services/llm"
)

type stubCompleter struct {
	content string
	err     error
	got     llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.got = req
	return s.content, s.err
}

func TestGenerateStripsFenceAndSendsPrompts(t *testing.T) {
	stub := &stubCompleter{content: "```markdown\n# My Trip\n\nBody text\n```"}
	w := New(stub, WithTemperature(0.2))

	doc, err := w.Generate(context.Background(), Request{
		Transcript:  "we went hiking",
		Language:    "de",
		Preferences: article.Preferences{Tone: "playful", EmojiPolicy: "none"},
		StyleGuide:  "short punchy sentences",
		BlogType:    "how-to",
		WordCount:   "long",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc != "# My Trip\n\nBody text" {
		t.Fatalf("unexpected document %q", doc)
	}
	if stub.got.System != SystemPrompt || stub.got.Temperature != 0.2 {
		t.Fatalf("unexpected request %+v", stub.got)
	}
	for _, want := range []string{"step-by-step", "about 2000 words", `"de"`, "Tone: playful", "Emoji use: none", "short punchy sentences", "we went hiking"} {
		if !strings.Contains(stub.got.User, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, stub.got.User)
		}
	}
	if strings.Contains(stub.got.User, "Heading style") {
		t.Fatalf("unset preference must be omitted:\n%s", stub.got.User)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		stub *stubCompleter
		req  Request
	}{
		{"empty transcript", &stubCompleter{content: "x"}, Request{Transcript: "  "}},
		{"llm error", &stubCompleter{err: errors.New("boom")}, Request{Transcript: "t"}},
		{"empty document", &stubCompleter{content: "```\n```"}, Request{Transcript: "t"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.stub).Generate(context.Background(), tc.req); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWordTarget(t *testing.T) {
	tests := map[string]int{
		"short":  500,
		"Medium": 1000,
		"long":   2000,
		"750":    750,
		"-3":     1000,
		"":       1000,
		"lots":   1000,
	}
	for input, want := range tests {
		if got := WordTarget(input); got != want {
			t.Fatalf("WordTarget(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestBuildUserPromptDefaultsBlogType(t *testing.T) {
	prompt := BuildUserPrompt(Request{Transcript: "hello", BlogType: "unknown"})
	if !strings.Contains(prompt, "introduction, body sections") {
		t.Fatalf("expected standard guidance, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Writer preferences") || strings.Contains(prompt, "Imitate") {
		t.Fatalf("expected no preferences or style sections:\n%s", prompt)
	}
}
