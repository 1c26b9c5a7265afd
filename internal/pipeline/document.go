package pipeline

import (
	"regexp"
	"strings"
)

const (
	// FailureTitle is written on every failed article.
	FailureTitle = "Article Generation Failed"
	// DefaultTitle replaces an empty first line.
	DefaultTitle = "Untitled Article"

	coverSummaryRunes = 500
)

var placeholderPattern = regexp.MustCompile(`\[image:\s*(.*?)\]`)

// FindPlaceholders returns placeholder descriptions in document order.
func FindPlaceholders(document string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(document, -1)
	descriptions := make([]string, 0, len(matches))
	for _, m := range matches {
		descriptions = append(descriptions, strings.TrimSpace(m[1]))
	}
	return descriptions
}

// ReplacePlaceholders substitutes the Nth placeholder with the Nth result.
// A failed result (empty URL) removes the placeholder.
func ReplacePlaceholders(document string, results []ImageResult) string {
	i := 0
	return placeholderPattern.ReplaceAllStringFunc(document, func(string) string {
		if i >= len(results) {
			i++
			return ""
		}
		result := results[i]
		i++
		if result.URL == "" {
			return ""
		}
		return "![" + altText(result.Description) + "](" + imageDestination(result.URL) + ")"
	})
}

var (
	altEscaper  = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`)
	destEscaper = strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "<", "%3C", ">", "%3E")
)

// altText flattens a description onto one line and escapes link syntax.
func altText(description string) string {
	return altEscaper.Replace(strings.Join(strings.Fields(description), " "))
}

func imageDestination(url string) string {
	return destEscaper.Replace(strings.TrimSpace(url))
}

// SplitTitle separates the first line (heading markers stripped) from the
// remaining lines.
func SplitTitle(document string) (string, string) {
	first, rest, _ := strings.Cut(document, "\n")
	title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(first), "#"))
	if title == "" {
		title = DefaultTitle
	}
	return title, strings.TrimSpace(rest)
}

// CoverSummary is the prompt input for the cover image: the title and the
// start of the body with placeholder markers removed.
func CoverSummary(title, body string) string {
	body = strings.TrimSpace(placeholderPattern.ReplaceAllString(body, ""))
	runes := []rune(body)
	if len(runes) > coverSummaryRunes {
		body = string(runes[:coverSummaryRunes])
	}
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}

func coverPrompt(summary string) string {
	return "A cover illustration for a blog post. No text in the image. Post summary:\n" + summary
}
