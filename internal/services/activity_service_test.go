package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type fakeActivities struct {
	byID   map[string]models.Activity
	audits []models.AuditLog
}

func newFakeActivities() *fakeActivities {
	return &fakeActivities{byID: map[string]models.Activity{}}
}

func (f *fakeActivities) Create(ctx context.Context, a models.Activity, audit models.AuditLog) (models.Activity, error) {
	if a.ID == "" {
		a.ID = "act-1"
	}
	f.byID[a.ID] = a
	f.audits = append(f.audits, audit)
	return a, nil
}

func (f *fakeActivities) Update(ctx context.Context, a models.Activity, audit models.AuditLog) (models.Activity, error) {
	if _, ok := f.byID[a.ID]; !ok {
		return models.Activity{}, repository.ErrNotFound
	}
	f.byID[a.ID] = a
	f.audits = append(f.audits, audit)
	return a, nil
}

func (f *fakeActivities) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeActivities) GetByID(ctx context.Context, tenantID, id string) (models.Activity, error) {
	a, ok := f.byID[id]
	if !ok {
		return models.Activity{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeActivities) List(ctx context.Context, tenantID string, _ repository.ActivityFilter) ([]models.Activity, int, error) {
	return nil, 0, nil
}

func (f *fakeActivities) Upcoming(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error) {
	return nil, nil
}

func (f *fakeActivities) Overdue(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error) {
	return nil, nil
}

func (f *fakeActivities) Stats(ctx context.Context, tenantID string) (repository.ActivityStats, error) {
	return repository.ActivityStats{}, nil
}

func TestActivityComplete(t *testing.T) {
	repo := newFakeActivities()
	repo.byID["act-1"] = models.Activity{ID: "act-1", Type: models.ActivityCall, Subject: "Intro call", TenantID: "t1"}
	svc := NewActivityService(repo, &fakeAuditLogs{}, testLog())

	next := mustTime(t, "2026-04-01T09:00:00Z")
	updated, err := svc.Complete(context.Background(), testMeta(), "act-1", "interested", "send proposal", &next)
	require.NoError(t, err)

	assert.True(t, updated.Completed)
	assert.Equal(t, "interested", updated.Outcome)
	assert.Equal(t, "send proposal", updated.NextAction)
	require.NotNil(t, updated.NextActionDate)
	assert.Equal(t, next, *updated.NextActionDate)

	require.Len(t, repo.audits, 1)
	a := repo.audits[0]
	assert.Equal(t, models.ActionComplete, a.Action)
	assert.Equal(t, false, a.OldValues["completed"])
	assert.Equal(t, true, a.NewValues["completed"])
}

func TestActivityCompleteUnknownID(t *testing.T) {
	svc := NewActivityService(newFakeActivities(), &fakeAuditLogs{}, testLog())

	_, err := svc.Complete(context.Background(), testMeta(), "missing", "", "", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActivityCreateDefaultsTenant(t *testing.T) {
	repo := newFakeActivities()
	svc := NewActivityService(repo, &fakeAuditLogs{}, testLog())

	created, err := svc.Create(context.Background(), testMeta(), models.Activity{
		Type: models.ActivityMeeting, Subject: "Kickoff",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", created.TenantID)
	assert.Equal(t, "u1", created.CreatedBy)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, "activity", repo.audits[0].EntityType)
	assert.Equal(t, models.ActionCreate, repo.audits[0].Action)
}
