package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tradecrm/crm-backend/internal/api/httpx"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
	"github.com/tradecrm/crm-backend/internal/services"
)

type DealsHandler struct {
	svc *services.DealService
}

func NewDealsHandler(svc *services.DealService) *DealsHandler {
	return &DealsHandler{svc: svc}
}

func (h *DealsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.Deal
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	created, err := h.svc.Create(r.Context(), meta(r), d)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *DealsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var d models.Deal
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	d.ID = chi.URLParam(r, "id")
	updated, err := h.svc.Update(r.Context(), meta(r), d)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *DealsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), meta(r), chi.URLParam(r, "id")); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DealsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

func parseTimeParam(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

func parseFloatParam(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func (h *DealsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.DealFilter{
		Search:        q.Get("search"),
		Stage:         q.Get("stage"),
		Status:        q.Get("status"),
		AssignedTo:    q.Get("assigned_to"),
		CompanyID:     q.Get("company_id"),
		Priority:      q.Get("priority"),
		OverdueOnly:   q.Get("overdue") == "true",
		CreatedAfter:  parseTimeParam(q.Get("created_after")),
		CreatedBefore: parseTimeParam(q.Get("created_before")),
		MinValue:      parseFloatParam(q.Get("min_value")),
		MaxValue:      parseFloatParam(q.Get("max_value")),
		SortBy:        q.Get("sort_by"),
		SortDesc:      q.Get("sort_dir") == "desc",
		Page:          page(r),
	}
	items, total, err := h.svc.List(r.Context(), tenant(r), f)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeList(w, items, total, f.Page)
}

func (h *DealsHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.PipelineFilter{
		AssignedTo: q.Get("assigned_to"),
		CompanyID:  q.Get("company_id"),
	}
	stages, err := h.svc.Pipeline(r.Context(), tenant(r), f)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stages)
}

func (h *DealsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), tenant(r))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (h *DealsHandler) History(w http.ResponseWriter, r *http.Request) {
	p := page(r)
	logs, err := h.svc.History(r.Context(), tenant(r), chi.URLParam(r, "id"), p.Limit, p.Offset)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}
