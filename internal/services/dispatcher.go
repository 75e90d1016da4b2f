package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/worker"
)

// EventSink receives domain events after the owning transaction has
// committed. Delivery is best effort: a failed publish is logged and
// dropped, never surfaced to the request.
type EventSink interface {
	Dispatch(e events.Event)
}

// Dispatcher publishes events from the worker pool over a short-lived
// broker connection per publish.
type Dispatcher struct {
	url  string
	log  *slog.Logger
	pool *worker.Pool
}

func NewDispatcher(url string, log *slog.Logger, pool *worker.Pool) *Dispatcher {
	return &Dispatcher{url: url, log: log, pool: pool}
}

func (d *Dispatcher) Dispatch(e events.Event) {
	d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := events.WithPublisher(d.url, d.log, func(p *events.Publisher) error {
			return p.Publish(ctx, e)
		})
		if err != nil {
			// The mutation is already durable; only the notification is lost.
			metrics.EventsPublishFailed.Inc()
			d.log.Error("event publish failed",
				"event_type", e.Type, "entity_id", e.EntityID, "tenant_id", e.TenantID, "err", err)
			return
		}
		metrics.EventsPublished.WithLabelValues(e.Type.String()).Inc()
	})
}
