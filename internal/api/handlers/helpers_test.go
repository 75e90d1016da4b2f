package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrm/crm-backend/internal/api/httpx"
	"github.com/tradecrm/crm-backend/internal/repository"
	"github.com/tradecrm/crm-backend/internal/services"
)

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) httpx.APIError {
	t.Helper()
	var e httpx.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e
}

func TestWriteServiceErrStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("update deal: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
		{"conflict", repository.ErrConflict, http.StatusConflict, "conflict"},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"invalid input", fmt.Errorf("%w: title is required", services.ErrInvalid), http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceErr(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeAPIError(t, rec).Code)
		})
	}
}

func TestWriteServiceErrHidesInternalDetail(t *testing.T) {
	// Persistence failures must not leak their text to the client.
	rec := httptest.NewRecorder()
	writeServiceErr(rec, errors.New("failed to connect to db host 10.0.0.5:5432"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeAPIError(t, rec)
	assert.Equal(t, "internal", e.Code)
	assert.Equal(t, "internal server error", e.Error)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestWriteServiceErrValidationKeepsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceErr(rec, fmt.Errorf("%w: quantity must be > 0", services.ErrInvalid))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeAPIError(t, rec).Error, "quantity must be > 0")
}
