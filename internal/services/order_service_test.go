package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/models"
)

var orderNumberRe = regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`)

func TestOrderNumberFormat(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		n := orderNumber(mustTime(t, "2026-03-15T10:00:00Z"))
		assert.Regexp(t, orderNumberRe, n)
		assert.Contains(t, n, "ORD-20260315-")
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, 20)
}

func TestOrderCreateTotalsAndEvent(t *testing.T) {
	repo := newFakeOrders()
	sink := &captureSink{}
	svc := NewOrderService(repo, &fakeAuditLogs{}, sink, testLog())

	created, err := svc.Create(context.Background(), testMeta(), models.Order{
		TaxAmount: 18,
		Items: []models.OrderItem{
			{ProductName: "Widget", Quantity: 3, UnitPrice: 100},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, orderNumberRe, created.OrderNumber)
	assert.Equal(t, 300.0, created.Subtotal)
	assert.Equal(t, 318.0, created.TotalAmount)
	assert.Equal(t, "t1", created.TenantID)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, "order", repo.audits[0].EntityType)
	assert.Equal(t, models.ActionCreate, repo.audits[0].Action)

	require.Len(t, sink.events, 1)
	assert.Equal(t, events.OrderCreated, sink.events[0].Type)
	assert.Equal(t, created.OrderNumber, sink.events[0].Data["order_number"])
	assert.Equal(t, 318.0, sink.events[0].Data["total_amount"])
}

func TestOrderCreateRejectsEmpty(t *testing.T) {
	sink := &captureSink{}
	svc := NewOrderService(newFakeOrders(), &fakeAuditLogs{}, sink, testLog())

	_, err := svc.Create(context.Background(), testMeta(), models.Order{})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, sink.events)
}

func TestOrderUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		status models.OrderStatus
		extra  events.Type
	}{
		{models.OrderShipping, events.OrderShipped},
		{models.OrderDone, events.OrderDelivered},
		{models.OrderDropped, events.OrderCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			repo := newFakeOrders()
			repo.byID["order-1"] = models.Order{
				ID: "order-1", OrderNumber: "ORD-20260315-AAAA1111",
				Status: models.OrderProcessing, TenantID: "t1",
				Items: []models.OrderItem{{ProductName: "Widget", Quantity: 1, UnitPrice: 10}},
			}
			sink := &captureSink{}
			svc := NewOrderService(repo, &fakeAuditLogs{}, sink, testLog())

			updated, err := svc.Update(context.Background(), testMeta(), models.Order{
				ID: "order-1", OrderNumber: "ORD-20260315-AAAA1111", Status: tc.status,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.status, updated.Status)

			assert.Equal(t, []events.Type{events.OrderUpdated, tc.extra}, sink.types(t))
			assert.Equal(t, "processing", sink.events[1].Data["old_status"])
			assert.Equal(t, string(tc.status), sink.events[1].Data["new_status"])
		})
	}
}

func TestOrderUpdateKeepsItemsAndStatus(t *testing.T) {
	repo := newFakeOrders()
	repo.byID["order-1"] = models.Order{
		ID: "order-1", OrderNumber: "ORD-20260315-AAAA1111",
		Status: models.OrderConfirmed, TenantID: "t1",
		Items: []models.OrderItem{{ProductName: "Widget", Quantity: 2, UnitPrice: 25}},
	}
	sink := &captureSink{}
	svc := NewOrderService(repo, &fakeAuditLogs{}, sink, testLog())

	// No status in the patch: status sticks, items survive, totals rederive.
	updated, err := svc.Update(context.Background(), testMeta(), models.Order{
		ID: "order-1", OrderNumber: "ORD-20260315-AAAA1111", ShippingAmount: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, updated.Status)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 65.0, updated.TotalAmount)

	// Same status means no transition event.
	assert.Equal(t, []events.Type{events.OrderUpdated}, sink.types(t))
}
