package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type fakeShipments struct {
	byID   map[string]models.Shipment
	audits []models.AuditLog
}

func newFakeShipments() *fakeShipments {
	return &fakeShipments{byID: map[string]models.Shipment{}}
}

func (f *fakeShipments) Create(ctx context.Context, s models.Shipment, audit models.AuditLog) (models.Shipment, error) {
	if s.ID == "" {
		s.ID = "ship-1"
	}
	f.byID[s.ID] = s
	f.audits = append(f.audits, audit)
	return s, nil
}

func (f *fakeShipments) Update(ctx context.Context, s models.Shipment, audit models.AuditLog) (models.Shipment, error) {
	if _, ok := f.byID[s.ID]; !ok {
		return models.Shipment{}, repository.ErrNotFound
	}
	f.byID[s.ID] = s
	f.audits = append(f.audits, audit)
	return s, nil
}

func (f *fakeShipments) GetByID(ctx context.Context, tenantID, id string) (models.Shipment, error) {
	s, ok := f.byID[id]
	if !ok {
		return models.Shipment{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeShipments) List(ctx context.Context, tenantID string, _ repository.ShipmentFilter) ([]models.Shipment, int, error) {
	return nil, 0, nil
}

func (f *fakeShipments) Stats(ctx context.Context, tenantID string) (repository.ShipmentStats, error) {
	return repository.ShipmentStats{}, nil
}

func TestShipmentCreateRequiresOrder(t *testing.T) {
	sink := &captureSink{}
	svc := NewShipmentService(newFakeShipments(), newFakeOrders(), &fakeAuditLogs{}, sink, testLog())

	_, err := svc.Create(context.Background(), testMeta(), models.Shipment{OrderID: "missing"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, sink.events)
}

func TestShipmentCreateGeneratesNumber(t *testing.T) {
	orders := newFakeOrders()
	orders.byID["order-1"] = models.Order{ID: "order-1", TenantID: "t1"}
	repo := newFakeShipments()
	svc := NewShipmentService(repo, orders, &fakeAuditLogs{}, &captureSink{}, testLog())

	created, err := svc.Create(context.Background(), testMeta(), models.Shipment{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Regexp(t, `^SHP-\d{8}-[0-9A-F]{8}$`, created.ShipmentNumber)
	assert.Equal(t, models.ShipmentPreparing, created.Status)
	assert.Equal(t, 1, created.PackageCount)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, "shipment", repo.audits[0].EntityType)
}

func TestShipmentDeliveredNotifiesOrder(t *testing.T) {
	orders := newFakeOrders()
	orders.byID["order-1"] = models.Order{ID: "order-1", TenantID: "t1"}
	repo := newFakeShipments()
	repo.byID["ship-1"] = models.Shipment{
		ID: "ship-1", ShipmentNumber: "SHP-20260315-BBBB2222",
		OrderID: "order-1", Status: models.ShipmentInTransit, TenantID: "t1",
	}
	sink := &captureSink{}
	svc := NewShipmentService(repo, orders, &fakeAuditLogs{}, sink, testLog())

	updated, err := svc.Update(context.Background(), testMeta(), models.Shipment{
		ID: "ship-1", ShipmentNumber: "SHP-20260315-BBBB2222",
		OrderID: "order-1", Status: models.ShipmentDelivered,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ActualDelivery)

	// The event targets the parent order, not the shipment.
	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, events.OrderDelivered, e.Type)
	assert.Equal(t, "order-1", e.EntityID)
	assert.Equal(t, "order", e.EntityType)
	assert.Equal(t, "SHP-20260315-BBBB2222", e.Data["shipment_number"])
}

func TestShipmentShippedStampsDate(t *testing.T) {
	orders := newFakeOrders()
	repo := newFakeShipments()
	repo.byID["ship-1"] = models.Shipment{
		ID: "ship-1", OrderID: "order-1", Status: models.ShipmentPreparing, TenantID: "t1",
	}
	sink := &captureSink{}
	svc := NewShipmentService(repo, orders, &fakeAuditLogs{}, sink, testLog())

	updated, err := svc.Update(context.Background(), testMeta(), models.Shipment{
		ID: "ship-1", OrderID: "order-1", Status: models.ShipmentShipped,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ShipmentDate)
	assert.Equal(t, []events.Type{events.OrderShipped}, sink.types(t))
}
