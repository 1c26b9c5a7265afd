package trigger

import (
	"context"
	"encoding/json"

	"voxpost/internal/metrics"
	"voxpost/internal/pipeline"
	"voxpost/internal/services"
)

// Enqueuer accepts a trigger event. It reports false, without error, when an
// event for the same article was already accepted.
type Enqueuer interface {
	Enqueue(ctx context.Context, job pipeline.Job) (bool, error)
}

// JobQueue is the part of queue.Store Direct writes to.
type JobQueue interface {
	Enqueue(ctx context.Context, articleID, userID string, payload json.RawMessage) (bool, error)
}

// Direct enqueues events into the local job queue.
type Direct struct {
	queue  JobQueue
	notify func()
}

// DirectOption customizes Direct.
type DirectOption func(*Direct)

// WithNotify registers a callback run after every newly accepted event.
func WithNotify(fn func()) DirectOption {
	return func(d *Direct) {
		d.notify = fn
	}
}

// NewDirect constructs a Direct enqueuer over queue.
func NewDirect(queue JobQueue, opts ...DirectOption) *Direct {
	d := &Direct{queue: queue}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue validates job and records it as pending.
func (d *Direct) Enqueue(ctx context.Context, job pipeline.Job) (bool, error) {
	payload, err := preparePayload(&job)
	if err != nil {
		metrics.TriggerEventsTotal.WithLabelValues("direct", "rejected").Inc()
		return false, err
	}
	created, err := d.queue.Enqueue(ctx, job.ArticleID, job.UserID, payload)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "", "enqueue job", job.ArticleID, err)
	}
	if !created {
		metrics.TriggerEventsTotal.WithLabelValues("direct", "duplicate").Inc()
		return false, nil
	}
	metrics.TriggerEventsTotal.WithLabelValues("direct", "enqueued").Inc()
	if d.notify != nil {
		d.notify()
	}
	return true, nil
}

func preparePayload(job *pipeline.Job) (json.RawMessage, error) {
	job.Normalize()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	payload, err := job.Payload()
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedJob, "", "encode job", "", err)
	}
	return payload, nil
}
