package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMeta() Meta {
	return Meta{
		UserID:        "u1",
		TenantID:      "t1",
		IPAddress:     "10.0.0.1",
		UserAgent:     "test-agent",
		CorrelationID: "corr-1",
	}
}

// captureSink records dispatched events synchronously.
type captureSink struct {
	events []events.Event
}

func (c *captureSink) Dispatch(e events.Event) { c.events = append(c.events, e) }

func (c *captureSink) types(t *testing.T) []events.Type {
	t.Helper()
	out := make([]events.Type, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeAuditLogs records standalone audit rows.
type fakeAuditLogs struct {
	appended []models.AuditLog
	byEntity []models.AuditLog
}

func (f *fakeAuditLogs) Append(ctx context.Context, l models.AuditLog) error {
	f.appended = append(f.appended, l)
	return nil
}

func (f *fakeAuditLogs) ListByEntity(ctx context.Context, tenantID, entityType, entityID string, limit, offset int) ([]models.AuditLog, error) {
	return f.byEntity, nil
}

// fakeCompanies implements repository.Companies in memory and records the
// audit rows passed alongside each mutation.
type fakeCompanies struct {
	byID   map[string]models.Company
	audits []models.AuditLog
	err    error
}

func newFakeCompanies() *fakeCompanies {
	return &fakeCompanies{byID: map[string]models.Company{}}
}

func (f *fakeCompanies) Create(ctx context.Context, c models.Company, audit models.AuditLog) (models.Company, error) {
	if f.err != nil {
		return models.Company{}, f.err
	}
	if c.ID == "" {
		c.ID = "company-1"
	}
	f.byID[c.ID] = c
	f.audits = append(f.audits, audit)
	return c, nil
}

func (f *fakeCompanies) Update(ctx context.Context, c models.Company, audit models.AuditLog) (models.Company, error) {
	if f.err != nil {
		return models.Company{}, f.err
	}
	if _, ok := f.byID[c.ID]; !ok {
		return models.Company{}, repository.ErrNotFound
	}
	f.byID[c.ID] = c
	f.audits = append(f.audits, audit)
	return c, nil
}

func (f *fakeCompanies) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeCompanies) GetByID(ctx context.Context, tenantID, id string) (models.Company, error) {
	c, ok := f.byID[id]
	if !ok {
		return models.Company{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCompanies) List(ctx context.Context, tenantID string, _ repository.CompanyFilter) ([]models.Company, int, error) {
	return nil, 0, nil
}

func (f *fakeCompanies) Stats(ctx context.Context, tenantID string) (repository.CompanyStats, error) {
	return repository.CompanyStats{}, nil
}

// fakeDeals implements repository.Deals in memory.
type fakeDeals struct {
	byID      map[string]models.Deal
	audits    []models.AuditLog
	initial   []models.Activity
	extra     [][]models.Activity
	open      []models.Deal
	updateErr error
}

func newFakeDeals() *fakeDeals {
	return &fakeDeals{byID: map[string]models.Deal{}}
}

func (f *fakeDeals) Create(ctx context.Context, d models.Deal, initial models.Activity, audit models.AuditLog) (models.Deal, error) {
	if d.ID == "" {
		d.ID = "deal-1"
	}
	f.byID[d.ID] = d
	f.initial = append(f.initial, initial)
	f.audits = append(f.audits, audit)
	return d, nil
}

func (f *fakeDeals) Update(ctx context.Context, d models.Deal, extra []models.Activity, audit models.AuditLog) (models.Deal, error) {
	if f.updateErr != nil {
		return models.Deal{}, f.updateErr
	}
	if _, ok := f.byID[d.ID]; !ok {
		return models.Deal{}, repository.ErrNotFound
	}
	f.byID[d.ID] = d
	f.extra = append(f.extra, extra)
	f.audits = append(f.audits, audit)
	return d, nil
}

func (f *fakeDeals) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeDeals) GetByID(ctx context.Context, tenantID, id string) (models.Deal, error) {
	d, ok := f.byID[id]
	if !ok {
		return models.Deal{}, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeDeals) List(ctx context.Context, tenantID string, _ repository.DealFilter) ([]models.Deal, int, error) {
	return nil, 0, nil
}

func (f *fakeDeals) OpenByTenant(ctx context.Context, tenantID string, _ repository.PipelineFilter) ([]models.Deal, error) {
	return f.open, nil
}

func (f *fakeDeals) Stats(ctx context.Context, tenantID string) (repository.DealStats, error) {
	return repository.DealStats{}, nil
}

// fakeOrders implements repository.Orders in memory.
type fakeOrders struct {
	byID   map[string]models.Order
	audits []models.AuditLog
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: map[string]models.Order{}}
}

func (f *fakeOrders) Create(ctx context.Context, o models.Order, audit models.AuditLog) (models.Order, error) {
	if o.ID == "" {
		o.ID = "order-1"
	}
	f.byID[o.ID] = o
	f.audits = append(f.audits, audit)
	return o, nil
}

func (f *fakeOrders) Update(ctx context.Context, o models.Order, audit models.AuditLog) (models.Order, error) {
	if _, ok := f.byID[o.ID]; !ok {
		return models.Order{}, repository.ErrNotFound
	}
	f.byID[o.ID] = o
	f.audits = append(f.audits, audit)
	return o, nil
}

func (f *fakeOrders) GetByID(ctx context.Context, tenantID, id string) (models.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) List(ctx context.Context, tenantID string, _ repository.OrderFilter) ([]models.Order, int, error) {
	return nil, 0, nil
}

func (f *fakeOrders) Stats(ctx context.Context, tenantID string) (repository.OrderStats, error) {
	return repository.OrderStats{}, nil
}
