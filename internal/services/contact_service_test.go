package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type fakeContacts struct {
	byID   map[string]models.Contact
	audits []models.AuditLog
	stats  repository.ContactStats
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{byID: map[string]models.Contact{}}
}

func (f *fakeContacts) Create(ctx context.Context, c models.Contact, audit models.AuditLog) (models.Contact, error) {
	if c.ID == "" {
		c.ID = "contact-1"
	}
	f.byID[c.ID] = c
	f.audits = append(f.audits, audit)
	return c, nil
}

func (f *fakeContacts) Update(ctx context.Context, c models.Contact, audit models.AuditLog) (models.Contact, error) {
	if _, ok := f.byID[c.ID]; !ok {
		return models.Contact{}, repository.ErrNotFound
	}
	f.byID[c.ID] = c
	f.audits = append(f.audits, audit)
	return c, nil
}

func (f *fakeContacts) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeContacts) GetByID(ctx context.Context, tenantID, id string) (models.Contact, error) {
	c, ok := f.byID[id]
	if !ok {
		return models.Contact{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeContacts) List(ctx context.Context, tenantID string, _ repository.ContactFilter) ([]models.Contact, int, error) {
	return nil, 0, nil
}

func (f *fakeContacts) Communications(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.CommunicationLog, error) {
	return nil, nil
}

func (f *fakeContacts) Notes(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.Note, error) {
	return nil, nil
}

func (f *fakeContacts) Stats(ctx context.Context, tenantID string) (repository.ContactStats, error) {
	return f.stats, nil
}

func TestContactCreatePublishesOnCompany(t *testing.T) {
	repo := newFakeContacts()
	sink := &captureSink{}
	svc := NewContactService(repo, &fakeAuditLogs{}, sink, testLog())

	companyID := "company-1"
	created, err := svc.Create(context.Background(), testMeta(), models.Contact{
		CompanyID: &companyID, FirstName: "Ada", LastName: "Kaya",
	})
	require.NoError(t, err)
	assert.Equal(t, "en", created.PreferredLang)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, "contact", repo.audits[0].EntityType)

	// Contact changes ride on the owning company's client stream.
	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, events.ClientUpdated, e.Type)
	assert.Equal(t, "company-1", e.EntityID)
	assert.Equal(t, "client", e.EntityType)
	assert.Equal(t, "contact_created", e.Data["change"])
	assert.Equal(t, created.ID, e.Data["contact_id"])
}

func TestContactCreateRejectsMissingName(t *testing.T) {
	svc := NewContactService(newFakeContacts(), &fakeAuditLogs{}, &captureSink{}, testLog())

	_, err := svc.Create(context.Background(), testMeta(), models.Contact{FirstName: "Ada"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestContactStats(t *testing.T) {
	repo := newFakeContacts()
	repo.stats = repository.ContactStats{
		Total:        4,
		ByDepartment: map[string]int{"sales": 3, "finance": 1},
		ByLanguage:   map[string]int{"en": 2, "tr": 2},
		ByMethod:     map[string]int{"email": 4},
	}
	svc := NewContactService(repo, &fakeAuditLogs{}, &captureSink{}, testLog())

	stats, err := svc.Stats(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByDepartment["sales"])
	assert.Equal(t, map[string]int{"email": 4}, stats.ByMethod)
}
