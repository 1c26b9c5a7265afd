// Package workflow drains the job queue through the article pipeline.
//
// The Manager runs a fixed pool of workers. Each worker polls for the oldest
// pending job, claims it with a compare-and-set, and hands the decoded job to
// a Runner (the pipeline orchestrator) while a heartbeat loop keeps the job's
// lease fresh. Worker 0 also reclaims running jobs whose heartbeat expired so
// a crashed run resumes from its checkpoints on the next claim.
//
// A run that ends because the manager is stopping is left running; the daemon
// requeues it once every worker has exited.
package workflow
