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

type ContactsHandler struct {
	svc *services.ContactService
}

func NewContactsHandler(svc *services.ContactService) *ContactsHandler {
	return &ContactsHandler{svc: svc}
}

func (h *ContactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
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

func (h *ContactsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
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

func (h *ContactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), meta(r), chi.URLParam(r, "id")); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.ContactFilter{
		Search:    q.Get("search"),
		CompanyID: q.Get("company_id"),
		SortBy:    q.Get("sort_by"),
		SortDesc:  q.Get("sort_dir") == "desc",
		Page:      page(r),
	}
	items, total, err := h.svc.List(r.Context(), tenant(r), f)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeList(w, items, total, f.Page)
}

func (h *ContactsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), tenant(r))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (h *ContactsHandler) Communications(w http.ResponseWriter, r *http.Request) {
	p := page(r)
	logs, err := h.svc.Communications(r.Context(), tenant(r), chi.URLParam(r, "id"), p.Limit, p.Offset)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}

func (h *ContactsHandler) Notes(w http.ResponseWriter, r *http.Request) {
	p := page(r)
	notes, err := h.svc.Notes(r.Context(), tenant(r), chi.URLParam(r, "id"), p.Limit, p.Offset)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, notes)
}

func (h *ContactsHandler) History(w http.ResponseWriter, r *http.Request) {
	p := page(r)
	logs, err := h.svc.History(r.Context(), tenant(r), chi.URLParam(r, "id"), p.Limit, p.Offset)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}
