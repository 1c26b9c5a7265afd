package daemon

import (
	"context"

	"voxpost/internal/config"
	"voxpost/internal/logging"
	"voxpost/internal/trigger"
)

const natsClientName = "voxpost"

// startTransport selects the trigger intake. The local transport enqueues
// straight into the job queue; the nats transport publishes to JetStream and
// a durable consumer drains the stream into the same queue.
func (d *Daemon) startTransport(ctx context.Context) error {
	direct := trigger.NewDirect(d.store, trigger.WithNotify(d.workflow.Notify))
	if d.cfg.Queue.Transport != config.TransportNATS {
		d.setEnqueuer(direct)
		return nil
	}

	natsCfg := trigger.NATSConfigFrom(d.cfg)
	conn, js, err := trigger.Connect(natsCfg, natsClientName)
	if err != nil {
		return err
	}
	consumer, err := trigger.NewNATSConsumer(js, natsCfg, direct, d.logger)
	if err != nil {
		conn.Close()
		return err
	}

	d.mu.Lock()
	d.conn = conn
	d.consumer = consumer
	d.enqueuer = trigger.NewNATSPublisher(js, natsCfg.Subject)
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := consumer.Run(ctx); err != nil {
			logging.ErrorWithContext(d.logger, "nats consumer stopped", "trigger_consumer_failed", logging.Error(err))
		}
	}()
	d.logger.Info("nats transport connected",
		logging.String(logging.FieldEventType, "trigger_transport_connected"),
		logging.String("url", natsCfg.URL),
		logging.String("stream", natsCfg.Stream),
		logging.String("subject", natsCfg.Subject))
	return nil
}

// stopTransport waits for the consumer loop, which exits on context
// cancellation, before dropping the subscription and connection.
func (d *Daemon) stopTransport() {
	d.wg.Wait()
	d.mu.Lock()
	consumer, conn := d.consumer, d.conn
	d.consumer, d.conn = nil, nil
	d.mu.Unlock()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			d.logger.Debug("nats unsubscribe failed", logging.Error(err))
		}
	}
	if conn != nil {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
}

func (d *Daemon) setEnqueuer(e trigger.Enqueuer) {
	d.mu.Lock()
	d.enqueuer = e
	d.mu.Unlock()
}
