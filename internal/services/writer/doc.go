// Package writer is the content generation adapter. It turns a transcript and
// the user's style context into a markdown article through an
// OpenAI-compatible chat model (see services/llm).
//
// The model is told to put the title on the first line and to mark image
// positions with [image: <description>] so the pipeline can resolve them.
package writer
