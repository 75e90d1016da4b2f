package events

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumeChannel struct {
	consumeErr error
	deliveries chan amqp.Delivery
	cancelled  bool
}

func (f *fakeConsumeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}

func (f *fakeConsumeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (f *fakeConsumeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return nil
}

func (f *fakeConsumeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	return f.deliveries, nil
}

func (f *fakeConsumeChannel) Cancel(consumer string, noWait bool) error {
	f.cancelled = true
	close(f.deliveries)
	return nil
}

func (f *fakeConsumeChannel) Close() error { return nil }

type fakeAcker struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcker) Ack(tag uint64, multiple bool) error { f.acked = true; return nil }
func (f *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}
func (f *fakeAcker) Reject(tag uint64, requeue bool) error { return nil }

func testSubscriber(t *testing.T) *Subscriber {
	t.Helper()
	return &Subscriber{
		service: "test",
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:    make(chan struct{}),
	}
}

func delivery(acker amqp.Acknowledger, body []byte) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acker, Body: body}
}

func encoded(t *testing.T, typ Type) []byte {
	t.Helper()
	e, err := New(typ, "t1", "e1", "deal", nil)
	require.NoError(t, err)
	body, err := Encode(e)
	require.NoError(t, err)
	return body
}

func TestHandlePoisonMessageNackedWithoutRequeue(t *testing.T) {
	s := testSubscriber(t)
	called := false
	s.subs = []subscription{{pattern: "*", fn: func(Event) error { called = true; return nil }}}

	acker := &fakeAcker{}
	s.handle(delivery(acker, []byte(`{broken`)))

	assert.True(t, acker.nacked)
	assert.False(t, acker.requeue)
	assert.False(t, acker.acked)
	assert.False(t, called)
}

func TestHandleDispatchesMatchingHandlersInOrder(t *testing.T) {
	s := testSubscriber(t)
	var got []string
	s.subs = []subscription{
		{pattern: "deal.*", fn: func(e Event) error { got = append(got, "deal"); return nil }},
		{pattern: "order.*", fn: func(e Event) error { got = append(got, "order"); return nil }},
		{pattern: "*", fn: func(e Event) error { got = append(got, "all"); return nil }},
	}

	acker := &fakeAcker{}
	s.handle(delivery(acker, encoded(t, DealCreated)))

	assert.Equal(t, []string{"deal", "all"}, got)
	assert.True(t, acker.acked)
}

func TestHandlerErrorDoesNotBlockAckOrSiblings(t *testing.T) {
	s := testSubscriber(t)
	siblingRan := false
	s.subs = []subscription{
		{pattern: "*", fn: func(Event) error { return errors.New("boom") }},
		{pattern: "*", fn: func(Event) error { siblingRan = true; return nil }},
	}

	acker := &fakeAcker{}
	s.handle(delivery(acker, encoded(t, OrderCreated)))

	assert.True(t, siblingRan)
	assert.True(t, acker.acked)
	assert.False(t, acker.nacked)
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	s := testSubscriber(t)
	siblingRan := false
	s.subs = []subscription{
		{pattern: "*", fn: func(Event) error { panic("handler bug") }},
		{pattern: "*", fn: func(Event) error { siblingRan = true; return nil }},
	}

	acker := &fakeAcker{}
	require.NotPanics(t, func() { s.handle(delivery(acker, encoded(t, DealWon))) })

	assert.True(t, siblingRan)
	assert.True(t, acker.acked)
}

func TestHandleUnknownTypeMatchesOnlyWildcard(t *testing.T) {
	s := testSubscriber(t)
	var got []string
	s.subs = []subscription{
		{pattern: "deal.created", fn: func(Event) error { got = append(got, "exact"); return nil }},
		{pattern: "*", fn: func(Event) error { got = append(got, "all"); return nil }},
	}

	body := []byte(`{"event_type":"invoice.created","tenant_id":"t1","entity_id":"x","entity_type":"invoice","timestamp":"2026-01-01T00:00:00Z"}`)
	acker := &fakeAcker{}
	s.handle(delivery(acker, body))

	assert.Equal(t, []string{"all"}, got)
	assert.True(t, acker.acked)
}

func TestDuplicateDeliveryHandledTwice(t *testing.T) {
	s := testSubscriber(t)
	count := 0
	s.subs = []subscription{{pattern: "*", fn: func(Event) error { count++; return nil }}}

	body := encoded(t, DealCreated)
	s.handle(delivery(&fakeAcker{}, body))
	s.handle(delivery(&fakeAcker{}, body))

	assert.Equal(t, 2, count)
}

func stopWithTimeout(t *testing.T, s *Subscriber) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.Stop() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestStopDoesNotHangWhenConsumeFails(t *testing.T) {
	s := testSubscriber(t)
	s.ch = &fakeConsumeChannel{consumeErr: errors.New("channel closed")}

	require.Error(t, s.Start())
	stopWithTimeout(t, s)
}

func TestStopBeforeStartReturnsImmediately(t *testing.T) {
	s := testSubscriber(t)
	s.ch = &fakeConsumeChannel{deliveries: make(chan amqp.Delivery)}

	stopWithTimeout(t, s)
}

func TestStopWaitsForInFlightDelivery(t *testing.T) {
	fc := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery, 1)}
	s := testSubscriber(t)
	s.ch = fc
	handled := 0
	s.subs = []subscription{{pattern: "*", fn: func(Event) error { handled++; return nil }}}

	acker := &fakeAcker{}
	fc.deliveries <- delivery(acker, encoded(t, DealCreated))

	started := make(chan error, 1)
	go func() { started <- s.Start() }()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.consuming
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	require.NoError(t, <-started)
	assert.Equal(t, 1, handled)
	assert.True(t, acker.acked)
	assert.True(t, fc.cancelled)
}
