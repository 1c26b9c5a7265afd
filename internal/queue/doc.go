// Package queue persists article generation jobs and their step checkpoints
// in SQLite.
//
// A job row is keyed by article id and carries the trigger payload, the
// scheduler status (pending, running, completed, failed), the pipeline state
// last reached, an attempt counter, and a heartbeat. Each completed pipeline
// step writes one job_steps row; a re-run after a crash or an operator retry
// loads those rows and skips the steps they cover. Checkpoints survive
// ReclaimStale and RetryFailed and are removed only with the job.
//
// Enqueue is idempotent on article id and Claim is a pending-to-running
// compare-and-set, so at most one worker runs a given article at a time.
//
// Schema changes bump schemaVersion; operators delete the queue database to
// adopt the new schema.
package queue
