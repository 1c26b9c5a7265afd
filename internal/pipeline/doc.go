// Package pipeline runs the article generation workflow for one job.
//
// The Orchestrator executes five steps in a fixed order (transcribe,
// fetch-context, generate-content, generate-images, persist). Each step's
// output is checkpointed before the next step starts, and a re-run loads
// the checkpoints first and skips every step they cover, so an adapter call
// that completed once is never repeated for the same job. The explicit State
// enum mirrors that progress and is recorded on the queue.
//
// Any step error except a single failed image is terminal: the run writes
// one failure record to the article (status failed, fixed title, raw error
// message as content) and returns the error. The persist step performs the
// only success write. Either way a run makes exactly one terminal write.
//
// Adapters are injected through the Transcriber, ContentGenerator and
// ImageGenerator interfaces.
package pipeline
