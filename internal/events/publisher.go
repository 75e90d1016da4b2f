package events

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the durable topic exchange shared by all producers.
const Exchange = "crm_events"

// PublishError marks a failed delivery to the broker. Publish is
// at-most-once: no retry, no buffering. Callers treat it as best-effort
// and decide whether to surface or drop the error.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string { return "publish event: " + e.Op + ": " + e.Err.Error() }
func (e *PublishError) Unwrap() error { return e.Err }

type publishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher holds one outbound broker connection. Acquire it with Connect
// or the scoped WithPublisher helper and always Close it.
type Publisher struct {
	conn *amqp.Connection
	ch   publishChannel
	log  *slog.Logger
}

// Connect dials the broker and declares the topic exchange.
func Connect(url string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, &PublishError{Op: "dial", Err: err}
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, &PublishError{Op: "channel", Err: err}
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, &PublishError{Op: "exchange declare", Err: err}
	}
	return &Publisher{conn: conn, ch: ch, log: log}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Publish sends one event to the exchange with routing key equal to its
// type. The message is persistent and carries tenant/entity/timestamp
// headers so brokers can filter without a body parse.
func (p *Publisher) Publish(ctx context.Context, e Event) error {
	body, err := Encode(e)
	if err != nil {
		return &PublishError{Op: "encode", Err: err}
	}
	err = p.ch.PublishWithContext(ctx, Exchange, e.Type.String(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Headers: amqp.Table{
			"tenant_id":   e.TenantID,
			"entity_type": e.EntityType,
			"timestamp":   e.Timestamp,
		},
	})
	if err != nil {
		return &PublishError{Op: "publish " + e.Type.String(), Err: err}
	}
	p.log.Info("published event",
		slog.String("event_type", e.Type.String()),
		slog.String("entity_type", e.EntityType),
		slog.String("entity_id", e.EntityID),
	)
	return nil
}

// WithPublisher opens a connection, runs fn, and releases the connection
// on every exit path.
func WithPublisher(url string, log *slog.Logger, fn func(*Publisher) error) (err error) {
	p, err := Connect(url, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close publisher: %w", cerr)
		}
	}()
	return fn(p)
}
