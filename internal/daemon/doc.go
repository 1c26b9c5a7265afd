// Package daemon coordinates the long-running voxpost worker process.
//
// It wires configuration, the job queue, the article store, the workflow
// manager, the trigger transport, and the HTTP API into a single lifecycle
// with flock-based locking to prevent multiple instances against one data
// directory. Jobs left running by a previous process are returned to pending
// on startup, and jobs interrupted by shutdown are returned to pending on
// stop, so their checkpoints resume the run later.
//
// Keep orchestration logic here: the pipeline itself lives in
// internal/pipeline and the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
