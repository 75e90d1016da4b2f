package repository

import (
	"context"
	"errors"

	"github.com/tradecrm/crm-backend/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Mutating methods take the audit row describing the change and persist it
// in the same transaction as the mutation. If the transaction fails,
// neither the change nor the audit row is visible.

type Users interface {
	Create(ctx context.Context, u models.User, audit models.AuditLog) (models.User, error)
	Update(ctx context.Context, u models.User, audit models.AuditLog) (models.User, error)
	SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error
	GetByID(ctx context.Context, tenantID, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, tenantID string, f UserFilter) ([]models.User, int, error)
}

type Companies interface {
	Create(ctx context.Context, c models.Company, audit models.AuditLog) (models.Company, error)
	Update(ctx context.Context, c models.Company, audit models.AuditLog) (models.Company, error)
	SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error
	GetByID(ctx context.Context, tenantID, id string) (models.Company, error)
	List(ctx context.Context, tenantID string, f CompanyFilter) ([]models.Company, int, error)
	Stats(ctx context.Context, tenantID string) (CompanyStats, error)
}

type Contacts interface {
	Create(ctx context.Context, c models.Contact, audit models.AuditLog) (models.Contact, error)
	Update(ctx context.Context, c models.Contact, audit models.AuditLog) (models.Contact, error)
	SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error
	GetByID(ctx context.Context, tenantID, id string) (models.Contact, error)
	List(ctx context.Context, tenantID string, f ContactFilter) ([]models.Contact, int, error)
	Communications(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.CommunicationLog, error)
	Notes(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.Note, error)
	Stats(ctx context.Context, tenantID string) (ContactStats, error)
}

type Deals interface {
	// Create also inserts the initial "Deal Created" activity in the same
	// transaction.
	Create(ctx context.Context, d models.Deal, initial models.Activity, audit models.AuditLog) (models.Deal, error)
	Update(ctx context.Context, d models.Deal, extra []models.Activity, audit models.AuditLog) (models.Deal, error)
	SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error
	GetByID(ctx context.Context, tenantID, id string) (models.Deal, error)
	List(ctx context.Context, tenantID string, f DealFilter) ([]models.Deal, int, error)
	OpenByTenant(ctx context.Context, tenantID string, f PipelineFilter) ([]models.Deal, error)
	Stats(ctx context.Context, tenantID string) (DealStats, error)
}

type Activities interface {
	Create(ctx context.Context, a models.Activity, audit models.AuditLog) (models.Activity, error)
	Update(ctx context.Context, a models.Activity, audit models.AuditLog) (models.Activity, error)
	SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error
	GetByID(ctx context.Context, tenantID, id string) (models.Activity, error)
	List(ctx context.Context, tenantID string, f ActivityFilter) ([]models.Activity, int, error)
	Upcoming(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error)
	Overdue(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error)
	Stats(ctx context.Context, tenantID string) (ActivityStats, error)
}

type Orders interface {
	Create(ctx context.Context, o models.Order, audit models.AuditLog) (models.Order, error)
	Update(ctx context.Context, o models.Order, audit models.AuditLog) (models.Order, error)
	GetByID(ctx context.Context, tenantID, id string) (models.Order, error)
	List(ctx context.Context, tenantID string, f OrderFilter) ([]models.Order, int, error)
	Stats(ctx context.Context, tenantID string) (OrderStats, error)
}

type Shipments interface {
	Create(ctx context.Context, s models.Shipment, audit models.AuditLog) (models.Shipment, error)
	Update(ctx context.Context, s models.Shipment, audit models.AuditLog) (models.Shipment, error)
	GetByID(ctx context.Context, tenantID, id string) (models.Shipment, error)
	List(ctx context.Context, tenantID string, f ShipmentFilter) ([]models.Shipment, int, error)
	Stats(ctx context.Context, tenantID string) (ShipmentStats, error)
}

type AuditLogs interface {
	// Append writes a standalone audit row outside any entity mutation
	// (login/logout and other non-CRUD actions).
	Append(ctx context.Context, l models.AuditLog) error
	ListByEntity(ctx context.Context, tenantID, entityType, entityID string, limit, offset int) ([]models.AuditLog, error)
}
