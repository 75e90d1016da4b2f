package events

import (
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one decoded event. Errors are logged and do not block
// acknowledgment or sibling handlers. Redelivery after a consumer crash is
// possible, so handlers must tolerate duplicates; the pipeline does not
// deduplicate.
type Handler func(Event) error

type subscription struct {
	pattern string
	fn      Handler
}

type consumeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	Close() error
}

// Subscriber owns one durable queue bound to the topic exchange, one
// binding per subscribed pattern. There is no retry and no dead-letter
// queue: an undecodable message is rejected without requeue and lost.
type Subscriber struct {
	url     string
	service string
	log     *slog.Logger

	conn *amqp.Connection
	ch   consumeChannel

	mu   sync.Mutex
	subs []subscription

	consumerTag string
	consuming   bool
	done        chan struct{}
	doneOnce    sync.Once
}

func NewSubscriber(url, service string, log *slog.Logger) *Subscriber {
	return &Subscriber{
		url:         url,
		service:     service,
		log:         log,
		consumerTag: "crm-" + service,
		done:        make(chan struct{}),
	}
}

func (s *Subscriber) queueName() string {
	return fmt.Sprintf("crm_%s_events", s.service)
}

// Connect dials the broker, declares the exchange and this service's
// durable queue.
func (s *Subscriber) Connect() error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("subscriber dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("subscriber channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(s.queueName(), true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	s.conn = conn
	s.ch = ch
	return nil
}

// Subscribe registers a handler for a pattern and binds the queue to it.
// All handlers matching a delivery run in registration order.
func (s *Subscriber) Subscribe(pattern string, h Handler) error {
	s.mu.Lock()
	s.subs = append(s.subs, subscription{pattern: pattern, fn: h})
	s.mu.Unlock()

	// "*" must match every routing key; AMQP "#" is the wildcard that does.
	bindingKey := pattern
	if pattern == "*" {
		bindingKey = "#"
	}
	if err := s.ch.QueueBind(s.queueName(), bindingKey, Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind %q: %w", pattern, err)
	}
	s.log.Info("subscribed", slog.String("pattern", pattern), slog.String("queue", s.queueName()))
	return nil
}

// Start consumes deliveries until Stop is called or the channel closes.
// It blocks the calling goroutine. done closes on every exit path so a
// concurrent Stop never hangs.
func (s *Subscriber) Start() error {
	defer s.finish()
	deliveries, err := s.ch.Consume(s.queueName(), s.consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	s.mu.Lock()
	s.consuming = true
	s.mu.Unlock()
	s.log.Info("consuming events", slog.String("service", s.service))
	for d := range deliveries {
		s.handle(d)
	}
	return nil
}

func (s *Subscriber) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Stop cancels the consumer. Safe to call from another goroutine; the
// in-flight delivery finishes and is acknowledged before Start returns.
// A Stop without a running consume loop returns immediately.
func (s *Subscriber) Stop() error {
	if s.ch == nil {
		return nil
	}
	s.mu.Lock()
	consuming := s.consuming
	s.mu.Unlock()
	if !consuming {
		s.finish()
		return nil
	}
	if err := s.ch.Cancel(s.consumerTag, false); err != nil {
		return fmt.Errorf("cancel consumer: %w", err)
	}
	<-s.done
	return nil
}

// Close releases the broker connection. Call after Stop.
func (s *Subscriber) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// handle runs the per-delivery contract: undecodable bodies are rejected
// without requeue; handler failures are isolated and logged; the message
// is acknowledged once every matching handler has run.
func (s *Subscriber) handle(d amqp.Delivery) {
	e, err := Decode(d.Body)
	if err != nil {
		s.log.Error("rejecting undecodable message", "err", err)
		_ = d.Nack(false, false)
		return
	}

	s.mu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if !Match(e.Type.String(), sub.pattern) {
			continue
		}
		s.invoke(sub, e)
	}
	_ = d.Ack(false)
}

func (s *Subscriber) invoke(sub subscription, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("handler panic",
				slog.String("pattern", sub.pattern),
				slog.String("event_type", e.Type.String()),
				"panic", rec,
			)
		}
	}()
	if err := sub.fn(e); err != nil {
		s.log.Error("handler error",
			slog.String("pattern", sub.pattern),
			slog.String("event_type", e.Type.String()),
			"err", err,
		)
	}
}
