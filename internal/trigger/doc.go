// Package trigger turns "process this article" events into queued jobs.
//
// Direct validates an event and writes it straight to the local job queue.
// With the NATS transport, producers use NATSPublisher to put events on a
// JetStream stream (deduplicated on article id) and the daemon runs a
// NATSConsumer that drains the stream into Direct. Malformed events are
// terminated and never redelivered; transient enqueue failures are nak'd.
package trigger
