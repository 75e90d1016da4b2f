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

type ShipmentService struct {
	repo   repository.Shipments
	orders repository.Orders
	audit  repository.AuditLogs
	sink   EventSink
	log    *slog.Logger
}

func NewShipmentService(repo repository.Shipments, orders repository.Orders, audit repository.AuditLogs, sink EventSink, log *slog.Logger) *ShipmentService {
	return &ShipmentService{repo: repo, orders: orders, audit: audit, sink: sink, log: log}
}

func shipmentNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "SHP-" + now.Format("20060102") + "-" + suffix
}

func (s *ShipmentService) Create(ctx context.Context, m Meta, sh models.Shipment) (models.Shipment, error) {
	if err := sh.Validate(); err != nil {
		return models.Shipment{}, invalid(err)
	}
	// The parent order must exist in this tenant.
	if _, err := s.orders.GetByID(ctx, m.TenantID, sh.OrderID); err != nil {
		return models.Shipment{}, err
	}
	sh.TenantID = m.TenantID
	sh.CreatedBy = m.UserID
	if sh.ShipmentNumber == "" {
		sh.ShipmentNumber = shipmentNumber(time.Now().UTC())
	}
	created, err := s.repo.Create(ctx, sh, m.audit("shipment", models.ActionCreate, nil, asMap(sh)))
	if err != nil {
		return models.Shipment{}, err
	}
	metrics.AuditLogsWritten.Inc()
	if created.Status == models.ShipmentShipped {
		s.publishOrderEvent(events.OrderShipped, m, created)
	}
	return created, nil
}

// Update applies the change; moving the shipment to shipped or delivered
// notifies order-domain subscribers about the parent order.
func (s *ShipmentService) Update(ctx context.Context, m Meta, sh models.Shipment) (models.Shipment, error) {
	old, err := s.repo.GetByID(ctx, m.TenantID, sh.ID)
	if err != nil {
		return models.Shipment{}, err
	}
	if err := sh.Validate(); err != nil {
		return models.Shipment{}, invalid(err)
	}
	sh.TenantID = m.TenantID
	sh.OrderID = old.OrderID
	sh.UpdatedBy = m.UserID

	now := time.Now().UTC()
	if sh.Status == models.ShipmentShipped && old.Status != models.ShipmentShipped && sh.ShipmentDate == nil {
		sh.ShipmentDate = &now
	}
	if sh.Status == models.ShipmentDelivered && old.Status != models.ShipmentDelivered && sh.ActualDelivery == nil {
		sh.ActualDelivery = &now
	}

	updated, err := s.repo.Update(ctx, sh, m.audit("shipment", models.ActionUpdate, asMap(old), asMap(sh)))
	if err != nil {
		return models.Shipment{}, err
	}
	metrics.AuditLogsWritten.Inc()

	if updated.Status != old.Status {
		switch updated.Status {
		case models.ShipmentShipped:
			s.publishOrderEvent(events.OrderShipped, m, updated)
		case models.ShipmentDelivered:
			s.publishOrderEvent(events.OrderDelivered, m, updated)
		}
	}
	return updated, nil
}

func (s *ShipmentService) Get(ctx context.Context, tenantID, id string) (models.Shipment, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *ShipmentService) List(ctx context.Context, tenantID string, f repository.ShipmentFilter) ([]models.Shipment, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *ShipmentService) Stats(ctx context.Context, tenantID string) (repository.ShipmentStats, error) {
	return s.repo.Stats(ctx, tenantID)
}

// TrackingInfo is the condensed view returned by the track endpoint.
type TrackingInfo struct {
	ShipmentNumber    string                `json:"shipment_number"`
	Status            models.ShipmentStatus `json:"status"`
	Carrier           string                `json:"carrier,omitempty"`
	TrackingNumber    string                `json:"tracking_number,omitempty"`
	CurrentLocation   string                `json:"current_location,omitempty"`
	ShipmentDate      *time.Time            `json:"shipment_date,omitempty"`
	EstimatedDelivery *time.Time            `json:"estimated_delivery_date,omitempty"`
	ActualDelivery    *time.Time            `json:"actual_delivery_date,omitempty"`
}

func (s *ShipmentService) Track(ctx context.Context, tenantID, id string) (TrackingInfo, error) {
	sh, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return TrackingInfo{}, err
	}
	return TrackingInfo{
		ShipmentNumber:    sh.ShipmentNumber,
		Status:            sh.Status,
		Carrier:           sh.Carrier,
		TrackingNumber:    sh.TrackingNumber,
		CurrentLocation:   sh.CurrentLocation,
		ShipmentDate:      sh.ShipmentDate,
		EstimatedDelivery: sh.EstimatedDelivery,
		ActualDelivery:    sh.ActualDelivery,
	}, nil
}

func (s *ShipmentService) publishOrderEvent(t events.Type, m Meta, sh models.Shipment) {
	e, err := events.OrderEvent(t, m.TenantID, sh.OrderID, map[string]any{
		"shipment_number": sh.ShipmentNumber,
		"carrier":         sh.Carrier,
		"tracking_number": sh.TrackingNumber,
	}, m.UserID)
	if err != nil {
		s.log.Error("build event", "event_type", t, "err", err)
		return
	}
	s.sink.Dispatch(e.WithCorrelation(m.CorrelationID))
}
