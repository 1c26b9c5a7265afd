// Package llm provides an OpenAI-compatible chat completion client.
//
// The content generation adapter (services/writer) is the main caller; the
// transcription and image adapters reuse RetryPolicy and HTTPStatusError so
// every remote call shares one retry behaviour.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the assistant text.
// Client.CompleteJSON: JSON-only completion.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// Calls are retried on HTTP 408/429/5xx errors, network timeouts, and empty
// completions with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Retry-After is honoured. Context cancellation aborts retries
// immediately.
package llm
