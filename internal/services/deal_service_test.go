package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

func TestDealCreateAuditsAndPublishes(t *testing.T) {
	repo := newFakeDeals()
	sink := &captureSink{}
	svc := NewDealService(repo, &fakeAuditLogs{}, sink, testLog())
	m := testMeta()

	created, err := svc.Create(context.Background(), m, models.Deal{Title: "Steel export", Value: 50000})
	require.NoError(t, err)
	assert.Equal(t, "t1", created.TenantID)
	assert.Equal(t, "u1", created.CreatedBy)

	// The initial pipeline activity rides along in the same mutation.
	require.Len(t, repo.initial, 1)
	assert.Equal(t, "Deal created", repo.initial[0].Subject)
	assert.Equal(t, models.ActivityNote, repo.initial[0].Type)

	require.Len(t, repo.audits, 1)
	a := repo.audits[0]
	assert.Equal(t, "deal", a.EntityType)
	assert.Equal(t, models.ActionCreate, a.Action)
	assert.Nil(t, a.OldValues)
	assert.Equal(t, "Steel export", a.NewValues["title"])
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, "10.0.0.1", a.IPAddress)

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, events.DealCreated, e.Type)
	assert.Equal(t, "t1", e.TenantID)
	assert.Equal(t, created.ID, e.EntityID)
	assert.Equal(t, "deal", e.EntityType)
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.Equal(t, "u1", e.UserID)
}

func TestDealUpdateStageChange(t *testing.T) {
	repo := newFakeDeals()
	repo.byID["deal-1"] = models.Deal{ID: "deal-1", Title: "Steel export", Stage: "lead", Status: models.DealOpen, TenantID: "t1"}
	sink := &captureSink{}
	svc := NewDealService(repo, &fakeAuditLogs{}, sink, testLog())

	updated, err := svc.Update(context.Background(), testMeta(), models.Deal{
		ID: "deal-1", Title: "Steel export", Stage: "proposal", Status: models.DealOpen,
	})
	require.NoError(t, err)
	assert.Equal(t, "proposal", updated.Stage)

	// Stage changes record their own activity alongside the update.
	require.Len(t, repo.extra, 1)
	require.Len(t, repo.extra[0], 1)
	assert.Equal(t, "Stage changed: lead -> proposal", repo.extra[0][0].Subject)

	assert.Equal(t, []events.Type{events.DealUpdated, events.DealStageChanged}, sink.types(t))
	assert.Equal(t, "lead", sink.events[1].Data["old_stage"])
	assert.Equal(t, "proposal", sink.events[1].Data["new_stage"])
}

func TestDealUpdateWonStampsCloseDate(t *testing.T) {
	repo := newFakeDeals()
	repo.byID["deal-1"] = models.Deal{ID: "deal-1", Title: "Steel export", Stage: "negotiation", Status: models.DealOpen, TenantID: "t1"}
	sink := &captureSink{}
	svc := NewDealService(repo, &fakeAuditLogs{}, sink, testLog())

	updated, err := svc.Update(context.Background(), testMeta(), models.Deal{
		ID: "deal-1", Title: "Steel export", Stage: "negotiation", Status: models.DealStatusWon, Value: 50000,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ActualCloseDate)

	assert.Equal(t, []events.Type{events.DealUpdated, events.DealWon}, sink.types(t))
	assert.Equal(t, 50000.0, sink.events[1].Data["value"])
}

func TestDealUpdateLost(t *testing.T) {
	repo := newFakeDeals()
	repo.byID["deal-1"] = models.Deal{ID: "deal-1", Title: "Steel export", Stage: "proposal", Status: models.DealOpen, TenantID: "t1"}
	sink := &captureSink{}
	svc := NewDealService(repo, &fakeAuditLogs{}, sink, testLog())

	updated, err := svc.Update(context.Background(), testMeta(), models.Deal{
		ID: "deal-1", Title: "Steel export", Stage: "proposal", Status: models.DealStatusLost,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ActualCloseDate)
	assert.Equal(t, []events.Type{events.DealUpdated, events.DealLost}, sink.types(t))
}

func TestDealUpdateFailureSuppressesEvents(t *testing.T) {
	repo := newFakeDeals()
	repo.byID["deal-1"] = models.Deal{ID: "deal-1", Title: "Steel export", Stage: "lead", Status: models.DealOpen, TenantID: "t1"}
	repo.updateErr = errors.New("tx failed")
	sink := &captureSink{}
	svc := NewDealService(repo, &fakeAuditLogs{}, sink, testLog())

	_, err := svc.Update(context.Background(), testMeta(), models.Deal{
		ID: "deal-1", Title: "Steel export", Stage: "proposal", Status: models.DealOpen,
	})
	require.Error(t, err)
	assert.Empty(t, sink.events)
}

func TestDealUpdateUnknownID(t *testing.T) {
	svc := NewDealService(newFakeDeals(), &fakeAuditLogs{}, &captureSink{}, testLog())

	_, err := svc.Update(context.Background(), testMeta(), models.Deal{ID: "missing", Title: "X"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDealDeleteAuditsOldValues(t *testing.T) {
	repo := newFakeDeals()
	repo.byID["deal-1"] = models.Deal{ID: "deal-1", Title: "Steel export", Stage: "lead", TenantID: "t1"}
	svc := NewDealService(repo, &fakeAuditLogs{}, &captureSink{}, testLog())

	require.NoError(t, svc.Delete(context.Background(), testMeta(), "deal-1"))

	require.Len(t, repo.audits, 1)
	a := repo.audits[0]
	assert.Equal(t, models.ActionDelete, a.Action)
	assert.Equal(t, "deal-1", a.EntityID)
	assert.Equal(t, "Steel export", a.OldValues["title"])
	assert.Nil(t, a.NewValues)
}

func TestDealPipelineGroupsByStage(t *testing.T) {
	repo := newFakeDeals()
	repo.open = []models.Deal{
		{ID: "d1", Stage: "lead", Value: 1000, Probability: 50},
		{ID: "d2", Stage: "lead", Value: 3000, Probability: 10},
		{ID: "d3", Stage: "proposal", Value: 5000, Probability: 80},
	}
	svc := NewDealService(repo, &fakeAuditLogs{}, &captureSink{}, testLog())

	stages, err := svc.Pipeline(context.Background(), "t1", repository.PipelineFilter{})
	require.NoError(t, err)

	byStage := map[string]PipelineStage{}
	for _, ps := range stages {
		byStage[ps.Stage] = ps
	}
	lead := byStage["lead"]
	assert.Equal(t, 2, lead.Count)
	assert.Equal(t, 4000.0, lead.Value)
	assert.Equal(t, 800.0, lead.WeightedValue)

	proposal := byStage["proposal"]
	assert.Equal(t, 1, proposal.Count)
	assert.Equal(t, 4000.0, proposal.WeightedValue)

	// Empty stages still show up so the kanban renders every column.
	for _, stage := range models.StageOrder {
		_, ok := byStage[stage]
		assert.True(t, ok, stage)
	}
}
