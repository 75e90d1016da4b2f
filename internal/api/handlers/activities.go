package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tradecrm/crm-backend/internal/api/httpx"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
	"github.com/tradecrm/crm-backend/internal/services"
)

type ActivitiesHandler struct {
	svc *services.ActivityService
}

func NewActivitiesHandler(svc *services.ActivityService) *ActivitiesHandler {
	return &ActivitiesHandler{svc: svc}
}

func (h *ActivitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var a models.Activity
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	created, err := h.svc.Create(r.Context(), meta(r), a)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *ActivitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var a models.Activity
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	a.ID = chi.URLParam(r, "id")
	updated, err := h.svc.Update(r.Context(), meta(r), a)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

type completeReq struct {
	Outcome        string     `json:"outcome,omitempty"`
	NextAction     string     `json:"next_action,omitempty"`
	NextActionDate *time.Time `json:"next_action_date,omitempty"`
}

func (h *ActivitiesHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	updated, err := h.svc.Complete(r.Context(), meta(r), chi.URLParam(r, "id"),
		req.Outcome, req.NextAction, req.NextActionDate)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *ActivitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), meta(r), chi.URLParam(r, "id")); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *ActivitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.ActivityFilter{
		Type:       q.Get("type"),
		DealID:     q.Get("deal_id"),
		AssignedTo: q.Get("assigned_to"),
		After:      parseTimeParam(q.Get("after")),
		Before:     parseTimeParam(q.Get("before")),
		Page:       page(r),
	}
	if v := q.Get("completed"); v != "" {
		b := v == "true"
		f.Completed = &b
	}
	items, total, err := h.svc.List(r.Context(), tenant(r), f)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeList(w, items, total, f.Page)
}

func (h *ActivitiesHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Upcoming(r.Context(), tenant(r), r.URL.Query().Get("assigned_to"), page(r).Limit)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *ActivitiesHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Overdue(r.Context(), tenant(r), r.URL.Query().Get("assigned_to"), page(r).Limit)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *ActivitiesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), tenant(r))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}
