package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/repository"
)

// Repositories bundles every store over one shared pool.
type Repositories struct {
	Users      repository.Users
	Companies  repository.Companies
	Contacts   repository.Contacts
	Deals      repository.Deals
	Activities repository.Activities
	Orders     repository.Orders
	Shipments  repository.Shipments
	AuditLogs  repository.AuditLogs
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:      NewUsers(pool),
		Companies:  NewCompanies(pool),
		Contacts:   NewContacts(pool),
		Deals:      NewDeals(pool),
		Activities: NewActivities(pool),
		Orders:     NewOrders(pool),
		Shipments:  NewShipments(pool),
		AuditLogs:  NewAuditLogs(pool),
	}
}
