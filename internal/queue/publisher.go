package queue

import (
	"context"
	"encoding/json"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// dialTimeout bounds connecting plus the AMQP handshake when the caller's
// context carries no earlier deadline.
const dialTimeout = 2 * time.Second

// Publisher sends CheckInRecordedEvent messages to RabbitMQ. It dials per
// publish; check-ins are rare enough that a pooled connection is not worth
// the reconnect handling.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the broker at url, or nil when url is
// empty. A nil *Publisher is a valid no-op.
func NewPublisher(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url}
}

// PublishCheckIn publishes ev as a persistent JSON message on CheckInQueue.
func (p *Publisher) PublishCheckIn(ctx context.Context, ev CheckInRecordedEvent) error {
	if p == nil {
		return nil
	}
	conn, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(CheckInQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", CheckInQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// dial connects to the broker within ctx. The deadline set on the socket
// also covers the handshake; the library clears it once the connection is
// open.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			deadline := time.Now().Add(dialTimeout)
			if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
				deadline = d
			}
			var d net.Dialer
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}
