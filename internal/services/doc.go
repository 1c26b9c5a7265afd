// Package services defines shared utilities consumed by the pipeline steps
// and the remote AI adapters.
//
// Key responsibilities:
//   - Context helpers that stamp article IDs, user IDs, step names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform between the orchestrator, the queue, and the
//     trigger transport.
//
// Adapter implementations live in subpackages (llm, writer, transcribe,
// imagegen).
package services
