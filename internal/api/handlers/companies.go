package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradecrm/crm-backend/internal/api/httpx"
	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
	"github.com/tradecrm/crm-backend/internal/services"
)

type CompaniesHandler struct {
	svc *services.CompanyService
}

func NewCompaniesHandler(svc *services.CompanyService) *CompaniesHandler {
	return &CompaniesHandler{svc: svc}
}

func (h *CompaniesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	created, err := h.svc.Create(r.Context(), meta(r), c)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *CompaniesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	c.ID = chi.URLParam(r, "id")
	updated, err := h.svc.Update(r.Context(), meta(r), c)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *CompaniesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), meta(r), chi.URLParam(r, "id")); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CompaniesHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *CompaniesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.CompanyFilter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Industry: q.Get("industry"),
		SortBy:   q.Get("sort_by"),
		SortDesc: q.Get("sort_dir") == "desc",
		Page:     page(r),
	}
	items, total, err := h.svc.List(r.Context(), tenant(r), f)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeList(w, items, total, f.Page)
}

func (h *CompaniesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), tenant(r))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (h *CompaniesHandler) History(w http.ResponseWriter, r *http.Request) {
	p := page(r)
	logs, err := h.svc.History(r.Context(), tenant(r), chi.URLParam(r, "id"), p.Limit, p.Offset)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}
