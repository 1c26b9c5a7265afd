package writer

import (
	"fmt"
	"strconv"
	"strings"
)

// SystemPrompt holds the fixed instructions for every article request.
const SystemPrompt = `You are a professional blog writer who turns spoken recordings into polished articles.

Rules:

- Write the article in markdown.

- The first line must be the article title as a level-one heading ("# Title"). Do not add any text before it.

- Stay faithful to the ideas in the transcript. Do not invent facts, quotes, or statistics.

- Where an illustration would help the reader, insert a marker on its own line in the form [image: short visual description]. Use between one and four markers. Describe the picture, not the article.

- Respond ONLY with the article. Do not wrap it in code fences or add commentary.`

var blogTypeGuidance = map[string]string{
	"standard": "a well-structured blog post with an introduction, body sections, and a conclusion",
	"listicle": "a numbered list article where each item has a short heading and explanation",
	"how-to":   "a step-by-step guide with numbered steps and practical tips",
	"opinion":  "an opinion piece with a clear thesis and supporting arguments",
	"news":     "a news-style article that leads with the most important information",
	"tutorial": "a hands-on tutorial that explains concepts before walking through the steps",
	"review":   "a review that covers strengths, weaknesses, and a final verdict",
	"personal": "a personal narrative told in the first person",
}

var wordCountTargets = map[string]int{
	"short":  500,
	"medium": 1000,
	"long":   2000,
}

const defaultWordCount = 1000

// WordTarget converts a word count preference into an approximate target.
func WordTarget(wordCount string) int {
	value := strings.ToLower(strings.TrimSpace(wordCount))
	if target, ok := wordCountTargets[value]; ok {
		return target
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n
	}
	return defaultWordCount
}

func blogGuidance(blogType string) string {
	if guidance, ok := blogTypeGuidance[strings.ToLower(strings.TrimSpace(blogType))]; ok {
		return guidance
	}
	return blogTypeGuidance["standard"]
}

// BuildUserPrompt renders the per-article prompt.
func BuildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %s.\n", blogGuidance(req.BlogType))
	fmt.Fprintf(&b, "Target length: about %d words.\n", WordTarget(req.WordCount))
	if lang := strings.TrimSpace(req.Language); lang != "" {
		fmt.Fprintf(&b, "Write in the language with BCP 47 tag %q.\n", lang)
	}

	prefs := req.Preferences
	if !prefs.IsZero() {
		b.WriteString("\nWriter preferences:\n")
		if prefs.Tone != "" {
			fmt.Fprintf(&b, "- Tone: %s\n", prefs.Tone)
		}
		if prefs.HeadingStyle != "" {
			fmt.Fprintf(&b, "- Heading style: %s\n", prefs.HeadingStyle)
		}
		if prefs.EmojiPolicy != "" {
			fmt.Fprintf(&b, "- Emoji use: %s\n", prefs.EmojiPolicy)
		}
	}

	if guide := strings.TrimSpace(req.StyleGuide); guide != "" {
		b.WriteString("\nImitate this writing style:\n")
		b.WriteString(guide)
		b.WriteString("\n")
	}

	b.WriteString("\nTranscript:\n")
	b.WriteString(strings.TrimSpace(req.Transcript))
	return b.String()
}
