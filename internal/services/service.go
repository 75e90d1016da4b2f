package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tradecrm/crm-backend/internal/models"
)

// ErrInvalid marks rejected caller input. Handlers map it to 400; any
// other service error is a persistence failure and maps to 500.
var ErrInvalid = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalid, err)
}

// Meta carries the acting principal and request context into audit rows
// and published events.
type Meta struct {
	UserID        string
	TenantID      string
	IPAddress     string
	UserAgent     string
	CorrelationID string
}

func (m Meta) audit(entityType string, action models.AuditAction, oldV, newV map[string]any) models.AuditLog {
	return models.AuditLog{
		EntityType: entityType,
		Action:     action,
		OldValues:  oldV,
		NewValues:  newV,
		UserID:     m.UserID,
		TenantID:   m.TenantID,
		IPAddress:  m.IPAddress,
		UserAgent:  m.UserAgent,
	}
}

// asMap projects a model through its JSON form so audit values use the
// same field names as the API.
func asMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
