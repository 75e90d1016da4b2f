package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tradecrm/crm-backend/internal/auth"
	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type UserService struct {
	repo repository.Users
	sink EventSink
	log  *slog.Logger
}

func NewUserService(repo repository.Users, sink EventSink, log *slog.Logger) *UserService {
	return &UserService{repo: repo, sink: sink, log: log}
}

func validateRoles(roles []string) error {
	for _, r := range roles {
		if !auth.ValidRole(r) {
			return invalid(errors.New("unknown role: " + r))
		}
	}
	return nil
}

func (s *UserService) Create(ctx context.Context, m Meta, u models.User, password string) (models.User, error) {
	if err := u.Validate(); err != nil {
		return models.User{}, invalid(err)
	}
	if len(password) < 8 {
		return models.User{}, invalid(errors.New("password must be at least 8 characters"))
	}
	if err := validateRoles(u.Roles); err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	u.TenantID = m.TenantID
	u.CreatedBy = m.UserID

	created, err := s.repo.Create(ctx, u, m.audit("user", models.ActionCreate, nil, asMap(u)))
	if err != nil {
		return models.User{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.UserCreated, m, created)
	return created, nil
}

func (s *UserService) Update(ctx context.Context, m Meta, u models.User) (models.User, error) {
	old, err := s.repo.GetByID(ctx, m.TenantID, u.ID)
	if err != nil {
		return models.User{}, err
	}
	if err := u.Validate(); err != nil {
		return models.User{}, invalid(err)
	}
	if err := validateRoles(u.Roles); err != nil {
		return models.User{}, err
	}
	u.TenantID = m.TenantID
	u.UpdatedBy = m.UserID

	updated, err := s.repo.Update(ctx, u, m.audit("user", models.ActionUpdate, asMap(old), asMap(u)))
	if err != nil {
		return models.User{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.UserUpdated, m, updated)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, m Meta, id string) error {
	old, err := s.repo.GetByID(ctx, m.TenantID, id)
	if err != nil {
		return err
	}
	audit := m.audit("user", models.ActionDelete, asMap(old), nil)
	audit.EntityID = id
	if err := s.repo.SoftDelete(ctx, m.TenantID, id, audit); err != nil {
		return err
	}
	metrics.AuditLogsWritten.Inc()
	return nil
}

func (s *UserService) Get(ctx context.Context, tenantID, id string) (models.User, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *UserService) List(ctx context.Context, tenantID string, f repository.UserFilter) ([]models.User, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

// Roles returns the static role catalog.
func (s *UserService) Roles() map[string]auth.Role {
	return auth.Roles
}

func (s *UserService) publish(t events.Type, m Meta, u models.User) {
	e, err := events.New(t, m.TenantID, u.ID, "user", map[string]any{
		"email": u.Email,
		"roles": u.Roles,
	})
	if err != nil {
		s.log.Error("build event", "event_type", t, "err", err)
		return
	}
	s.sink.Dispatch(e.WithUser(m.UserID).WithCorrelation(m.CorrelationID))
}
