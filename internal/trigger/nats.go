package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"voxpost/internal/config"
	"voxpost/internal/logging"
	"voxpost/internal/metrics"
	"voxpost/internal/pipeline"
	"voxpost/internal/services"
)

const (
	defaultFetchBatch = 8
	defaultFetchWait  = 5 * time.Second
	streamMaxAge      = 7 * 24 * time.Hour
)

// NATSConfig locates the trigger stream.
type NATSConfig struct {
	URL             string
	Stream          string
	Subject         string
	Durable         string
	DuplicateWindow time.Duration
}

// NATSConfigFrom extracts the NATS settings from cfg.
func NATSConfigFrom(cfg *config.Config) NATSConfig {
	return NATSConfig{
		URL:             cfg.Queue.NATSURL,
		Stream:          cfg.Queue.NATSStream,
		Subject:         cfg.Queue.NATSSubject,
		Durable:         cfg.Queue.NATSDurable,
		DuplicateWindow: time.Duration(cfg.Queue.DuplicateWindowSeconds) * time.Second,
	}
}

// Connect dials NATS, opens JetStream, and ensures the trigger stream exists.
func Connect(cfg NATSConfig, name string) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "", "connect nats", cfg.URL, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open jetstream: %w", err)
	}
	if err := EnsureStream(js, cfg); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, js, nil
}

// EnsureStream creates the work-queue stream for the trigger subject.
func EnsureStream(js nats.JetStreamContext, cfg NATSConfig) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{cfg.Subject},
		Retention:  nats.WorkQueuePolicy,
		Storage:    nats.FileStorage,
		MaxAge:     streamMaxAge,
		Duplicates: cfg.DuplicateWindow,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("add stream %s: %w", cfg.Stream, err)
	}
	return nil
}

// NATSPublisher publishes trigger events to JetStream.
type NATSPublisher struct {
	js      nats.JetStreamContext
	subject string
}

// NewNATSPublisher publishes to subject on js.
func NewNATSPublisher(js nats.JetStreamContext, subject string) *NATSPublisher {
	return &NATSPublisher{js: js, subject: subject}
}

// Enqueue validates job and publishes it with the article id as the message
// id, so JetStream drops repeats inside the duplicate window.
func (p *NATSPublisher) Enqueue(ctx context.Context, job pipeline.Job) (bool, error) {
	payload, err := preparePayload(&job)
	if err != nil {
		metrics.TriggerEventsTotal.WithLabelValues("nats", "rejected").Inc()
		return false, err
	}
	ack, err := p.js.Publish(p.subject, payload, nats.MsgId(job.ArticleID), nats.Context(ctx))
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "", "publish job", job.ArticleID, err)
	}
	if ack.Duplicate {
		metrics.TriggerEventsTotal.WithLabelValues("nats", "duplicate").Inc()
		return false, nil
	}
	metrics.TriggerEventsTotal.WithLabelValues("nats", "published").Inc()
	return true, nil
}

// acker is the acknowledgement surface of a JetStream message.
type acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// NATSConsumer drains the trigger stream into target.
type NATSConsumer struct {
	sub       *nats.Subscription
	target    Enqueuer
	logger    *slog.Logger
	batch     int
	fetchWait time.Duration
}

// NewNATSConsumer binds a durable pull consumer on the trigger subject.
func NewNATSConsumer(js nats.JetStreamContext, cfg NATSConfig, target Enqueuer, logger *slog.Logger) (*NATSConsumer, error) {
	sub, err := js.PullSubscribe(cfg.Subject, cfg.Durable,
		nats.BindStream(cfg.Stream),
		nats.ManualAck(),
		nats.AckExplicit(),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", cfg.Subject, err)
	}
	return newConsumer(sub, target, logger), nil
}

func newConsumer(sub *nats.Subscription, target Enqueuer, logger *slog.Logger) *NATSConsumer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NATSConsumer{
		sub:       sub,
		target:    target,
		logger:    logging.NewComponentLogger(logger, "trigger-nats"),
		batch:     defaultFetchBatch,
		fetchWait: defaultFetchWait,
	}
}

// Run fetches and handles messages until ctx is cancelled.
func (c *NATSConsumer) Run(ctx context.Context) error {
	c.logger.Info("nats consumer started", logging.String(logging.FieldEventType, "trigger_consumer_started"))
	for {
		if ctx.Err() != nil {
			return nil
		}
		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchWait)
		msgs, err := c.sub.Fetch(c.batch, nats.Context(fetchCtx))
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			c.logger.Warn("nats fetch failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "trigger_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check the NATS server and stream"))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		for _, msg := range msgs {
			c.handle(ctx, msg.Data, msg)
		}
	}
}

// Close releases the subscription.
func (c *NATSConsumer) Close() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}

func (c *NATSConsumer) handle(ctx context.Context, data []byte, msg acker) {
	job, err := pipeline.ParseJob(data)
	if err != nil {
		metrics.TriggerEventsTotal.WithLabelValues("nats", "rejected").Inc()
		logging.WarnWithContext(c.logger, "rejected malformed trigger event", "trigger_rejected",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no article will be generated for this event"))
		c.settle(msg.Term, "term")
		return
	}

	ctx = services.WithArticleID(ctx, job.ArticleID)
	logger := logging.WithContext(ctx, c.logger)
	created, err := c.target.Enqueue(ctx, job)
	switch {
	case err != nil && !services.Redeliverable(err):
		metrics.TriggerEventsTotal.WithLabelValues("nats", "rejected").Inc()
		logger.Warn("trigger event rejected", logging.Error(err))
		c.settle(msg.Term, "term")
	case err != nil:
		metrics.TriggerEventsTotal.WithLabelValues("nats", "redelivered").Inc()
		logger.Warn("enqueue failed; event will be redelivered", logging.Error(err))
		c.settle(msg.Nak, "nak")
	default:
		logger.Debug("trigger event consumed", logging.Bool("created", created))
		c.settle(msg.Ack, "ack")
	}
}

func (c *NATSConsumer) settle(fn func(...nats.AckOpt) error, action string) {
	if err := fn(); err != nil {
		c.logger.Warn("nats acknowledgement failed",
			logging.String("action", action),
			logging.Error(err))
	}
}
