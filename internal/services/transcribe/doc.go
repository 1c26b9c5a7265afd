// Package transcribe is the speech-to-text adapter. It decodes an audio data
// URI and uploads it to an OpenAI-compatible /audio/transcriptions endpoint.
//
// Transient failures (timeouts, 408, 429, 5xx) are retried with the shared
// llm.RetryPolicy. An empty transcript is returned as "" without error; the
// caller decides whether that is fatal.
package transcribe
