package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type DealService struct {
	repo  repository.Deals
	audit repository.AuditLogs
	sink  EventSink
	log   *slog.Logger
}

func NewDealService(repo repository.Deals, audit repository.AuditLogs, sink EventSink, log *slog.Logger) *DealService {
	return &DealService{repo: repo, audit: audit, sink: sink, log: log}
}

func (s *DealService) Create(ctx context.Context, m Meta, d models.Deal) (models.Deal, error) {
	if err := d.Validate(); err != nil {
		return models.Deal{}, invalid(err)
	}
	d.TenantID = m.TenantID
	d.CreatedBy = m.UserID

	initial := models.Activity{
		Type:         models.ActivityNote,
		Subject:      "Deal created",
		Description:  d.Title,
		ActivityDate: time.Now().UTC(),
		AssignedTo:   d.AssignedTo,
		Priority:     d.Priority,
		TenantID:     m.TenantID,
		CreatedBy:    m.UserID,
	}
	created, err := s.repo.Create(ctx, d, initial, m.audit("deal", models.ActionCreate, nil, asMap(d)))
	if err != nil {
		return models.Deal{}, err
	}
	metrics.AuditLogsWritten.Inc()
	s.publish(events.DealCreated, m, created, map[string]any{
		"title": created.Title,
		"stage": created.Stage,
		"value": created.Value,
	})
	return created, nil
}

// Update applies the change and derives the follow-on effects: a stage
// change adds a pipeline activity and its own event; closing the deal as
// won or lost stamps the close date and fires the matching event.
func (s *DealService) Update(ctx context.Context, m Meta, d models.Deal) (models.Deal, error) {
	old, err := s.repo.GetByID(ctx, m.TenantID, d.ID)
	if err != nil {
		return models.Deal{}, err
	}
	if err := d.Validate(); err != nil {
		return models.Deal{}, invalid(err)
	}
	d.TenantID = m.TenantID
	d.UpdatedBy = m.UserID

	now := time.Now().UTC()
	stageChanged := d.Stage != old.Stage
	justWon := d.Status == models.DealStatusWon && old.Status != models.DealStatusWon
	justLost := d.Status == models.DealStatusLost && old.Status != models.DealStatusLost
	if (justWon || justLost) && d.ActualCloseDate == nil {
		d.ActualCloseDate = &now
	}

	var extra []models.Activity
	if stageChanged {
		extra = append(extra, models.Activity{
			Type:         models.ActivityNote,
			Subject:      "Stage changed: " + old.Stage + " -> " + d.Stage,
			ActivityDate: now,
			AssignedTo:   d.AssignedTo,
			Priority:     d.Priority,
			TenantID:     m.TenantID,
			CreatedBy:    m.UserID,
		})
	}

	updated, err := s.repo.Update(ctx, d, extra, m.audit("deal", models.ActionUpdate, asMap(old), asMap(d)))
	if err != nil {
		return models.Deal{}, err
	}
	metrics.AuditLogsWritten.Inc()

	s.publish(events.DealUpdated, m, updated, map[string]any{
		"title": updated.Title,
		"stage": updated.Stage,
		"value": updated.Value,
	})
	if stageChanged {
		s.publish(events.DealStageChanged, m, updated, map[string]any{
			"old_stage": old.Stage,
			"new_stage": updated.Stage,
		})
	}
	if justWon {
		s.publish(events.DealWon, m, updated, map[string]any{
			"title": updated.Title,
			"value": updated.Value,
		})
	}
	if justLost {
		s.publish(events.DealLost, m, updated, map[string]any{
			"title": updated.Title,
			"value": updated.Value,
		})
	}
	return updated, nil
}

func (s *DealService) Delete(ctx context.Context, m Meta, id string) error {
	old, err := s.repo.GetByID(ctx, m.TenantID, id)
	if err != nil {
		return err
	}
	audit := m.audit("deal", models.ActionDelete, asMap(old), nil)
	audit.EntityID = id
	if err := s.repo.SoftDelete(ctx, m.TenantID, id, audit); err != nil {
		return err
	}
	metrics.AuditLogsWritten.Inc()
	return nil
}

func (s *DealService) Get(ctx context.Context, tenantID, id string) (models.Deal, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *DealService) List(ctx context.Context, tenantID string, f repository.DealFilter) ([]models.Deal, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *DealService) Stats(ctx context.Context, tenantID string) (repository.DealStats, error) {
	return s.repo.Stats(ctx, tenantID)
}

func (s *DealService) History(ctx context.Context, tenantID, id string, limit, offset int) ([]models.AuditLog, error) {
	return s.audit.ListByEntity(ctx, tenantID, "deal", id, limit, offset)
}

// PipelineStage is one column of the kanban view: the open deals in a
// stage plus their raw and probability-weighted totals.
type PipelineStage struct {
	Stage         string        `json:"stage"`
	Count         int           `json:"count"`
	Value         float64       `json:"value"`
	WeightedValue float64       `json:"weighted_value"`
	Deals         []models.Deal `json:"deals"`
}

func (s *DealService) Pipeline(ctx context.Context, tenantID string, f repository.PipelineFilter) ([]PipelineStage, error) {
	deals, err := s.repo.OpenByTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	byStage := map[string]*PipelineStage{}
	var order []string
	for _, stage := range models.StageOrder {
		byStage[stage] = &PipelineStage{Stage: stage}
		order = append(order, stage)
	}
	for _, d := range deals {
		ps, ok := byStage[d.Stage]
		if !ok {
			ps = &PipelineStage{Stage: d.Stage}
			byStage[d.Stage] = ps
			order = append(order, d.Stage)
		}
		ps.Count++
		ps.Value += d.Value
		ps.WeightedValue += d.WeightedValue()
		ps.Deals = append(ps.Deals, d)
	}
	out := make([]PipelineStage, 0, len(order))
	for _, stage := range order {
		out = append(out, *byStage[stage])
	}
	return out, nil
}

func (s *DealService) publish(t events.Type, m Meta, d models.Deal, data map[string]any) {
	e, err := events.DealEvent(t, m.TenantID, d.ID, data, m.UserID)
	if err != nil {
		s.log.Error("build event", "event_type", t, "err", err)
		return
	}
	s.sink.Dispatch(e.WithCorrelation(m.CorrelationID))
}
