package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type ActivityService struct {
	repo  repository.Activities
	audit repository.AuditLogs
	log   *slog.Logger
}

func NewActivityService(repo repository.Activities, audit repository.AuditLogs, log *slog.Logger) *ActivityService {
	return &ActivityService{repo: repo, audit: audit, log: log}
}

func (s *ActivityService) Create(ctx context.Context, m Meta, a models.Activity) (models.Activity, error) {
	if err := a.Validate(); err != nil {
		return models.Activity{}, invalid(err)
	}
	a.TenantID = m.TenantID
	a.CreatedBy = m.UserID
	created, err := s.repo.Create(ctx, a, m.audit("activity", models.ActionCreate, nil, asMap(a)))
	if err != nil {
		return models.Activity{}, err
	}
	metrics.AuditLogsWritten.Inc()
	return created, nil
}

func (s *ActivityService) Update(ctx context.Context, m Meta, a models.Activity) (models.Activity, error) {
	old, err := s.repo.GetByID(ctx, m.TenantID, a.ID)
	if err != nil {
		return models.Activity{}, err
	}
	if err := a.Validate(); err != nil {
		return models.Activity{}, invalid(err)
	}
	a.TenantID = m.TenantID
	a.UpdatedBy = m.UserID
	updated, err := s.repo.Update(ctx, a, m.audit("activity", models.ActionUpdate, asMap(old), asMap(a)))
	if err != nil {
		return models.Activity{}, err
	}
	metrics.AuditLogsWritten.Inc()
	return updated, nil
}

// Complete marks the activity done and records the outcome and any next
// action in one step.
func (s *ActivityService) Complete(ctx context.Context, m Meta, id, outcome, nextAction string, nextActionDate *time.Time) (models.Activity, error) {
	a, err := s.repo.GetByID(ctx, m.TenantID, id)
	if err != nil {
		return models.Activity{}, err
	}
	old := asMap(a)
	a.Completed = true
	if outcome != "" {
		a.Outcome = outcome
	}
	if nextAction != "" {
		a.NextAction = nextAction
		a.NextActionDate = nextActionDate
	}
	a.UpdatedBy = m.UserID
	updated, err := s.repo.Update(ctx, a, m.audit("activity", models.ActionComplete, old, asMap(a)))
	if err != nil {
		return models.Activity{}, err
	}
	metrics.AuditLogsWritten.Inc()
	return updated, nil
}

func (s *ActivityService) Delete(ctx context.Context, m Meta, id string) error {
	old, err := s.repo.GetByID(ctx, m.TenantID, id)
	if err != nil {
		return err
	}
	audit := m.audit("activity", models.ActionDelete, asMap(old), nil)
	audit.EntityID = id
	if err := s.repo.SoftDelete(ctx, m.TenantID, id, audit); err != nil {
		return err
	}
	metrics.AuditLogsWritten.Inc()
	return nil
}

func (s *ActivityService) Get(ctx context.Context, tenantID, id string) (models.Activity, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *ActivityService) List(ctx context.Context, tenantID string, f repository.ActivityFilter) ([]models.Activity, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *ActivityService) Upcoming(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error) {
	return s.repo.Upcoming(ctx, tenantID, assignedTo, limit)
}

func (s *ActivityService) Overdue(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error) {
	return s.repo.Overdue(ctx, tenantID, assignedTo, limit)
}

func (s *ActivityService) Stats(ctx context.Context, tenantID string) (repository.ActivityStats, error) {
	return s.repo.Stats(ctx, tenantID)
}
