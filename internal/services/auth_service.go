package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tradecrm/crm-backend/internal/auth"
	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
	"github.com/tradecrm/crm-backend/internal/session"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	users    repository.Users
	auditLog repository.AuditLogs
	tm       *auth.TokenManager
	sessions *session.Store
	sink     EventSink
	log      *slog.Logger
}

func NewAuthService(users repository.Users, auditLog repository.AuditLogs, tm *auth.TokenManager, sessions *session.Store, sink EventSink, log *slog.Logger) *AuthService {
	return &AuthService{users: users, auditLog: auditLog, tm: tm, sessions: sessions, sink: sink, log: log}
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         UserInfo  `json:"user"`
}

type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	TenantID  string   `json:"tenant_id"`
	Roles     []string `json:"roles"`
}

func userInfo(u models.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		TenantID:  u.TenantID,
		Roles:     u.Roles,
	}
}

// Login verifies the credentials and issues an access/refresh pair. The
// refresh token is stored server-side so logout can revoke it. The login
// itself is audited as a standalone row.
func (s *AuthService) Login(ctx context.Context, m Meta, email, password string) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	access, refresh, exp, err := s.tm.GeneratePair(u.ID, u.Email, u.TenantID, u.Roles)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Save(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, err
	}

	m.UserID = u.ID
	m.TenantID = u.TenantID
	audit := m.audit("user", models.ActionLogin, nil, map[string]any{"email": u.Email})
	audit.EntityID = u.ID
	if err := s.auditLog.Append(ctx, audit); err != nil {
		s.log.Error("audit login", "user_id", u.ID, "err", err)
	}
	s.publish(events.UserLogin, m, u)

	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, User: userInfo(u)}, nil
}

// Refresh rotates a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tm.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := s.sessions.Validate(ctx, claims.UserID, refreshToken); err != nil {
		if errors.Is(err, session.ErrUnknownToken) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	u, err := s.users.GetByID(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return TokenPair{}, ErrInvalidCredentials
	}

	access, refresh, exp, err := s.tm.GeneratePair(u.ID, u.Email, u.TenantID, u.Roles)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Revoke(ctx, u.ID, refreshToken); err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Save(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, User: userInfo(u)}, nil
}

// Logout revokes the refresh token and audits the action.
func (s *AuthService) Logout(ctx context.Context, m Meta, refreshToken string) error {
	if refreshToken != "" {
		if err := s.sessions.Revoke(ctx, m.UserID, refreshToken); err != nil {
			return err
		}
	} else if err := s.sessions.RevokeAll(ctx, m.UserID); err != nil {
		return err
	}

	audit := m.audit("user", models.ActionLogout, nil, nil)
	audit.EntityID = m.UserID
	if err := s.auditLog.Append(ctx, audit); err != nil {
		s.log.Error("audit logout", "user_id", m.UserID, "err", err)
	}

	e, err := events.New(events.UserLogout, m.TenantID, m.UserID, "user", nil)
	if err == nil {
		s.sink.Dispatch(e.WithUser(m.UserID).WithCorrelation(m.CorrelationID))
	}
	return nil
}

func (s *AuthService) publish(t events.Type, m Meta, u models.User) {
	e, err := events.New(t, m.TenantID, u.ID, "user", map[string]any{"email": u.Email})
	if err != nil {
		s.log.Error("build event", "event_type", t, "err", err)
		return
	}
	s.sink.Dispatch(e.WithUser(u.ID).WithCorrelation(m.CorrelationID))
}
