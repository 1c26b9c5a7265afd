// Package api serves the voxpost HTTP surface and a small client for it.
//
// NewRouter builds a gin engine over the article store, the job queue, and a
// trigger Enqueuer. The create-article action records the article as
// processing, enqueues the trigger event, and answers 202 without waiting for
// the run. Read routes are scoped under /api/users/:user; job routes expose
// queue state and the operator retry, which resumes from checkpoints. When a
// token is configured every /api route requires "Authorization: Bearer".
// /metrics serves the Prometheus registry unauthenticated.
//
// Client wraps the same routes for the CLI.
package api
