// Package service holds cross-cutting application services used by the
// handlers and background jobs.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-facility-reservation/internal/queue"
)

const defaultDialTimeout = 2 * time.Second

// Publisher sends reservation events to RabbitMQ. Each call dials the
// broker, declares the durable queue and publishes a persistent message.
// Connecting and the AMQP handshake are bounded by DialTimeout (2s when
// zero) and by the deadline of the caller's context.
type Publisher struct {
	URL         string
	DialTimeout time.Duration
}

func (p *Publisher) dialTimeout(ctx context.Context) (time.Duration, error) {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}
	return timeout, nil
}

// Publish sends ev to queue.QueueName.
func (p *Publisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	timeout, err := p.dialTimeout(ctx)
	if err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queue.QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
}

// EventPublisher is satisfied by *Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Notifier routes reservation events to the requester. With a publisher the
// event goes through the broker; without one, or when publishing fails, the
// notification is written directly.
type Notifier struct {
	pub    EventPublisher
	writer queue.NotificationWriter
	log    zerolog.Logger
}

// NewNotifier accepts a nil publisher.
func NewNotifier(pub EventPublisher, w queue.NotificationWriter, log zerolog.Logger) *Notifier {
	return &Notifier{pub: pub, writer: w, log: log}
}

// Notify never fails the caller's request; delivery errors are logged.
func (n *Notifier) Notify(ctx context.Context, ev queue.ReservationEvent) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if n.pub != nil {
		err := n.pub.Publish(ctx, ev)
		if err == nil {
			return
		}
		n.log.Warn().Err(err).Str("type", ev.Type).Msg("publish failed; storing notification directly")
	}
	if err := queue.Deliver(ctx, n.writer, ev); err != nil {
		n.log.Error().Err(err).Int64("reservation_id", ev.ReservationID).Msg("store notification failed")
	}
}
