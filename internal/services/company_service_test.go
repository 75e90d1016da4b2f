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

func TestCompanyCreate(t *testing.T) {
	repo := newFakeCompanies()
	sink := &captureSink{}
	svc := NewCompanyService(repo, &fakeAuditLogs{}, sink, testLog())

	created, err := svc.Create(context.Background(), testMeta(), models.Company{Name: "Acme Trading"})
	require.NoError(t, err)
	assert.Equal(t, "t1", created.TenantID)
	assert.Equal(t, "u1", created.CreatedBy)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, "company", repo.audits[0].EntityType)
	assert.Equal(t, models.ActionCreate, repo.audits[0].Action)
	assert.Equal(t, "Acme Trading", repo.audits[0].NewValues["name"])

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, events.ClientCreated, e.Type)
	assert.Equal(t, "client", e.EntityType)
	assert.Equal(t, "Acme Trading", e.Data["name"])
}

func TestCompanyUpdateCarriesOldValues(t *testing.T) {
	repo := newFakeCompanies()
	repo.byID["company-1"] = models.Company{ID: "company-1", Name: "Acme Trading", Status: models.CompanyActive, TenantID: "t1"}
	sink := &captureSink{}
	svc := NewCompanyService(repo, &fakeAuditLogs{}, sink, testLog())

	_, err := svc.Update(context.Background(), testMeta(), models.Company{ID: "company-1", Name: "Acme Global"})
	require.NoError(t, err)

	require.Len(t, repo.audits, 1)
	a := repo.audits[0]
	assert.Equal(t, models.ActionUpdate, a.Action)
	assert.Equal(t, "Acme Trading", a.OldValues["name"])
	assert.Equal(t, "Acme Global", a.NewValues["name"])

	assert.Equal(t, []events.Type{events.ClientUpdated}, sink.types(t))
}

func TestCompanyUpdateUnknownID(t *testing.T) {
	svc := NewCompanyService(newFakeCompanies(), &fakeAuditLogs{}, &captureSink{}, testLog())

	_, err := svc.Update(context.Background(), testMeta(), models.Company{ID: "missing", Name: "Ghost"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCompanyDeletePublishesDeleted(t *testing.T) {
	repo := newFakeCompanies()
	repo.byID["company-1"] = models.Company{ID: "company-1", Name: "Acme Trading", TenantID: "t1"}
	sink := &captureSink{}
	svc := NewCompanyService(repo, &fakeAuditLogs{}, sink, testLog())

	require.NoError(t, svc.Delete(context.Background(), testMeta(), "company-1"))

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.ActionDelete, repo.audits[0].Action)
	assert.Equal(t, "company-1", repo.audits[0].EntityID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, events.ClientDeleted, sink.events[0].Type)
	assert.Equal(t, "company-1", sink.events[0].EntityID)
}

func TestCompanyCreateRepoErrorSuppressesEvent(t *testing.T) {
	repo := newFakeCompanies()
	repo.err = repository.ErrConflict
	sink := &captureSink{}
	svc := NewCompanyService(repo, &fakeAuditLogs{}, sink, testLog())

	_, err := svc.Create(context.Background(), testMeta(), models.Company{Name: "Acme Trading"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Empty(t, sink.events)
}
