package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type OrderService struct {
	repo  repository.Orders
	audit repository.AuditLogs
	sink  EventSink
	log   *slog.Logger
}

func NewOrderService(repo repository.Orders, audit repository.AuditLogs, sink EventSink, log *slog.Logger) *OrderService {
	return &OrderService{repo: repo, audit: audit, sink: sink, log: log}
}

func orderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + now.Format("20060102") + "-" + suffix
}

func (s *OrderService) Create(ctx context.Context, m Meta, o models.Order) (models.Order, error) {
	if err := o.Validate(); err != nil {
		return models.Order{}, invalid(err)
	}
	o.TenantID = m.TenantID
	o.CreatedBy = m.UserID
	if o.OrderNumber == "" {
		o.OrderNumber = orderNumber(time.Now().UTC())
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	o.Recalculate()

	created, err := s.repo.Create(ctx, o, m.audit("order", models.ActionCreate, nil, asMap(o)))
	if err != nil {
		return models.Order{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.OrderCreated, m, created, map[string]any{
		"order_number": created.OrderNumber,
		"total_amount": created.TotalAmount,
		"currency":     created.Currency,
	})
	return created, nil
}

// Update applies header-level changes; items are fixed at creation. A
// status transition fires its own event on top of order.updated.
func (s *OrderService) Update(ctx context.Context, m Meta, o models.Order) (models.Order, error) {
	old, err := s.repo.GetByID(ctx, m.TenantID, o.ID)
	if err != nil {
		return models.Order{}, err
	}
	if !o.Status.Valid() {
		o.Status = old.Status
	}
	o.TenantID = m.TenantID
	o.UpdatedBy = m.UserID
	o.Items = old.Items
	o.Recalculate()

	updated, err := s.repo.Update(ctx, o, m.audit("order", models.ActionUpdate, asMap(old), asMap(o)))
	if err != nil {
		return models.Order{}, err
	}
	metrics.AuditLogsWritten.Inc()

	s.publish(events.OrderUpdated, m, updated, map[string]any{
		"order_number": updated.OrderNumber,
		"status":       string(updated.Status),
	})
	if updated.Status != old.Status {
		if t, ok := orderStatusEvent(updated.Status); ok {
			s.publish(t, m, updated, map[string]any{
				"order_number": updated.OrderNumber,
				"old_status":   string(old.Status),
				"new_status":   string(updated.Status),
			})
		}
	}
	return updated, nil
}

func orderStatusEvent(st models.OrderStatus) (events.Type, bool) {
	switch st {
	case models.OrderShipping:
		return events.OrderShipped, true
	case models.OrderDone:
		return events.OrderDelivered, true
	case models.OrderDropped:
		return events.OrderCancelled, true
	}
	return "", false
}

func (s *OrderService) Get(ctx context.Context, tenantID, id string) (models.Order, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *OrderService) List(ctx context.Context, tenantID string, f repository.OrderFilter) ([]models.Order, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *OrderService) Stats(ctx context.Context, tenantID string) (repository.OrderStats, error) {
	return s.repo.Stats(ctx, tenantID)
}

func (s *OrderService) History(ctx context.Context, tenantID, id string, limit, offset int) ([]models.AuditLog, error) {
	return s.audit.ListByEntity(ctx, tenantID, "order", id, limit, offset)
}

func (s *OrderService) publish(t events.Type, m Meta, o models.Order, data map[string]any) {
	e, err := events.OrderEvent(t, m.TenantID, o.ID, data, m.UserID)
	if err != nil {
		s.log.Error("build event", "event_type", t, "err", err)
		return
	}
	s.sink.Dispatch(e.WithCorrelation(m.CorrelationID))
}
