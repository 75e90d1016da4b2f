package services

import (
	"context"
	"log/slog"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type CompanyService struct {
	repo  repository.Companies
	audit repository.AuditLogs
	sink  EventSink
	log   *slog.Logger
}

func NewCompanyService(repo repository.Companies, audit repository.AuditLogs, sink EventSink, log *slog.Logger) *CompanyService {
	return &CompanyService{repo: repo, audit: audit, sink: sink, log: log}
}

func (s *CompanyService) Create(ctx context.Context, m Meta, c models.Company) (models.Company, error) {
	if err := c.Validate(); err != nil {
		return models.Company{}, invalid(err)
	}
	c.TenantID = m.TenantID
	c.CreatedBy = m.UserID
	created, err := s.repo.Create(ctx, c, m.audit("company", models.ActionCreate, nil, asMap(c)))
	if err != nil {
		return models.Company{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.ClientCreated, m, created)
	return created, nil
}

func (s *CompanyService) Update(ctx context.Context, m Meta, c models.Company) (models.Company, error) {
	old, err := s.repo.GetByID(ctx, m.TenantID, c.ID)
	if err != nil {
		return models.Company{}, err
	}
	if err := c.Validate(); err != nil {
		return models.Company{}, invalid(err)
	}
	c.TenantID = m.TenantID
	c.UpdatedBy = m.UserID
	updated, err := s.repo.Update(ctx, c, m.audit("company", models.ActionUpdate, asMap(old), asMap(c)))
	if err != nil {
		return models.Company{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.ClientUpdated, m, updated)
	return updated, nil
}

func (s *CompanyService) Delete(ctx context.Context, m Meta, id string) error {
	old, err := s.repo.GetByID(ctx, m.TenantID, id)
	if err != nil {
		return err
	}
	audit := m.audit("company", models.ActionDelete, asMap(old), nil)
	audit.EntityID = id
	if err := s.repo.SoftDelete(ctx, m.TenantID, id, audit); err != nil {
		return err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.ClientDeleted, m, old)
	return nil
}

func (s *CompanyService) Get(ctx context.Context, tenantID, id string) (models.Company, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *CompanyService) List(ctx context.Context, tenantID string, f repository.CompanyFilter) ([]models.Company, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *CompanyService) Stats(ctx context.Context, tenantID string) (repository.CompanyStats, error) {
	return s.repo.Stats(ctx, tenantID)
}

func (s *CompanyService) History(ctx context.Context, tenantID, id string, limit, offset int) ([]models.AuditLog, error) {
	return s.audit.ListByEntity(ctx, tenantID, "company", id, limit, offset)
}

func (s *CompanyService) publish(t events.Type, m Meta, c models.Company) {
	e, err := events.ClientEvent(t, m.TenantID, c.ID, map[string]any{
		"name":   c.Name,
		"status": string(c.Status),
	}, m.UserID)
	if err != nil {
		s.log.Error("build event", "event_type", t, "err", err)
		return
	}
	s.sink.Dispatch(e.WithCorrelation(m.CorrelationID))
}
