package handlers

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/tradecrm/crm-backend/internal/api/httpx"
	"github.com/tradecrm/crm-backend/internal/middleware"
	"github.com/tradecrm/crm-backend/internal/repository"
	"github.com/tradecrm/crm-backend/internal/services"
)

func meta(r *http.Request) services.Meta {
	return services.Meta{
		UserID:        middleware.UserID(r.Context()),
		TenantID:      middleware.TenantID(r.Context()),
		IPAddress:     clientIP(r),
		UserAgent:     r.UserAgent(),
		CorrelationID: middleware.RequestIDFrom(r.Context()),
	}
}

func tenant(r *http.Request) string {
	return middleware.TenantID(r.Context())
}

func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		if i := strings.IndexByte(v, ','); i >= 0 {
			return strings.TrimSpace(v[:i])
		}
		return v
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func page(r *http.Request) repository.Page {
	p := repository.Page{Limit: 50}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			p.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Offset = n
		}
	}
	return p
}

type listResp struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func writeList(w http.ResponseWriter, items any, total int, p repository.Page) {
	httpx.WriteJSON(w, http.StatusOK, listResp{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset})
}

func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, repository.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", "resource already exists", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
	case errors.Is(err, services.ErrInvalid):
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
	default:
		// Anything unrecognized is a persistence or infrastructure failure;
		// the detail stays in the logs, not the response.
		httpx.WriteError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
	}
}
