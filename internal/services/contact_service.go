package services

import (
	"context"
	"log/slog"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type ContactService struct {
	repo  repository.Contacts
	audit repository.AuditLogs
	sink  EventSink
	log   *slog.Logger
}

func NewContactService(repo repository.Contacts, audit repository.AuditLogs, sink EventSink, log *slog.Logger) *ContactService {
	return &ContactService{repo: repo, audit: audit, sink: sink, log: log}
}

func (s *ContactService) Create(ctx context.Context, m Meta, c models.Contact) (models.Contact, error) {
	if err := c.Validate(); err != nil {
		return models.Contact{}, invalid(err)
	}
	c.TenantID = m.TenantID
	c.CreatedBy = m.UserID
	created, err := s.repo.Create(ctx, c, m.audit("contact", models.ActionCreate, nil, asMap(c)))
	if err != nil {
		return models.Contact{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.ClientUpdated, m, created, "contact_created")
	return created, nil
}

func (s *ContactService) Update(ctx context.Context, m Meta, c models.Contact) (models.Contact, error) {
	old, err := s.repo.GetByID(ctx, m.TenantID, c.ID)
	if err != nil {
		return models.Contact{}, err
	}
	if err := c.Validate(); err != nil {
		return models.Contact{}, invalid(err)
	}
	c.TenantID = m.TenantID
	c.UpdatedBy = m.UserID
	updated, err := s.repo.Update(ctx, c, m.audit("contact", models.ActionUpdate, asMap(old), asMap(c)))
	if err != nil {
		return models.Contact{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.ClientUpdated, m, updated, "contact_updated")
	return updated, nil
}

func (s *ContactService) Delete(ctx context.Context, m Meta, id string) error {
	old, err := s.repo.GetByID(ctx, m.TenantID, id)
	if err != nil {
		return err
	}
	audit := m.audit("contact", models.ActionDelete, asMap(old), nil)
	audit.EntityID = id
	if err := s.repo.SoftDelete(ctx, m.TenantID, id, audit); err != nil {
		return err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.ClientUpdated, m, old, "contact_deleted")
	return nil
}

func (s *ContactService) Get(ctx context.Context, tenantID, id string) (models.Contact, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *ContactService) List(ctx context.Context, tenantID string, f repository.ContactFilter) ([]models.Contact, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *ContactService) Stats(ctx context.Context, tenantID string) (repository.ContactStats, error) {
	return s.repo.Stats(ctx, tenantID)
}

func (s *ContactService) Communications(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.CommunicationLog, error) {
	return s.repo.Communications(ctx, tenantID, contactID, limit, offset)
}

func (s *ContactService) Notes(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.Note, error) {
	return s.repo.Notes(ctx, tenantID, contactID, limit, offset)
}

func (s *ContactService) History(ctx context.Context, tenantID, id string, limit, offset int) ([]models.AuditLog, error) {
	return s.audit.ListByEntity(ctx, tenantID, "contact", id, limit, offset)
}

// Contact changes surface as client.updated on the owning company so
// client-domain subscribers see them without a dedicated contact type.
func (s *ContactService) publish(t events.Type, m Meta, c models.Contact, change string) {
	companyID := ""
	if c.CompanyID != nil {
		companyID = *c.CompanyID
	}
	e, err := events.New(t, m.TenantID, companyID, "client", map[string]any{
		"change":     change,
		"contact_id": c.ID,
	})
	if err != nil {
		s.log.Error("build event", "event_type", t, "err", err)
		return
	}
	s.sink.Dispatch(e.WithUser(m.UserID).WithCorrelation(m.CorrelationID))
}
