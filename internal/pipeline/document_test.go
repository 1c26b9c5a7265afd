package pipeline

import (
	"strings"
	"testing"
)

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		wantTitle string
		wantBody  string
	}{
		{"heading", "# Hello World\nBody text", "Hello World", "Body text"},
		{"plain first line", "Plain Title\n\nPara one\nPara two", "Plain Title", "Para one\nPara two"},
		{"deep heading", "### Deep  \nx", "Deep", "x"},
		{"single line", "# Only", "Only", ""},
		{"empty first line", "\nBody only", DefaultTitle, "Body only"},
		{"bare hashes", "##\nBody", DefaultTitle, "Body"},
		{"empty", "", DefaultTitle, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			title, body := SplitTitle(tc.document)
			if title != tc.wantTitle || body != tc.wantBody {
				t.Fatalf("SplitTitle(%q) = %q, %q; want %q, %q", tc.document, title, body, tc.wantTitle, tc.wantBody)
			}
		})
	}
}

func TestFindPlaceholders(t *testing.T) {
	got := FindPlaceholders("# T\n[image: a red barn] and [image:sunset]\n[image:   ]\n[img: no]")
	want := []string{"a red barn", "sunset", ""}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("placeholder %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReplacePlaceholders(t *testing.T) {
	doc := "[image: a] / [image: b] / [image: c]"
	results := []ImageResult{
		{Description: "a", URL: "u1"},
		{Description: "b", Error: "failed"},
	}
	got := ReplacePlaceholders(doc, results)
	if got != "![a](u1) /  / " {
		t.Fatalf("unexpected replacement %q", got)
	}
	if strings.Contains(got, "[image:") {
		t.Fatal("placeholders must never survive replacement")
	}
}

func TestReplacePlaceholdersEscapesLinkSyntax(t *testing.T) {
	tests := []struct {
		name   string
		result ImageResult
		want   string
	}{
		{"parentheses", ImageResult{Description: "a cat (sleeping)", URL: "u"}, `![a cat \(sleeping\)](u)`},
		{"brackets", ImageResult{Description: "a [large] dog", URL: "u"}, `![a \[large\] dog](u)`},
		{"newlines collapse", ImageResult{Description: "first\n  second\tthird", URL: "u"}, "![first second third](u)"},
		{"url characters", ImageResult{Description: "x", URL: "https://img.example/a b(1).png"}, "![x](https://img.example/a%20b%281%29.png)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReplacePlaceholders("[image: x]", []ImageResult{tc.result}); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCoverSummary(t *testing.T) {
	if got := CoverSummary("Title", "  "); got != "Title" {
		t.Fatalf("expected title only, got %q", got)
	}
	got := CoverSummary("Title", "Intro [image: x] more")
	if got != "Title\n\nIntro  more" {
		t.Fatalf("expected markers stripped, got %q", got)
	}

	long := strings.Repeat("é", 600)
	got = CoverSummary("T", long)
	body := strings.TrimPrefix(got, "T\n\n")
	if n := len([]rune(body)); n != 500 {
		t.Fatalf("expected 500 runes, got %d", n)
	}
}
