package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/adapter/http/middleware"
	"github.com/bufl/ledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	assert.Equal(t, 50, parseIntQuery(req, "limit", 10))

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	assert.Equal(t, 10, parseIntQuery(req, "limit", 10))

	req.URL = &url.URL{RawQuery: ""}
	assert.Equal(t, 25, parseIntQuery(req, "limit", 25))
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"goal not found", domain.ErrGoalNotFound, http.StatusNotFound},
		{"schedule not found", domain.ErrScheduleNotFound, http.StatusNotFound},
		{"not owned", domain.ErrAccountNotOwned, http.StatusForbidden},
		{"duplicate account", domain.ErrDuplicateAccount, http.StatusConflict},
		{"not pending", domain.ErrScheduleNotPending, http.StatusConflict},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"exceeds target", domain.ErrExceedsTarget, http.StatusUnprocessableEntity},
		{"wrapped ratio sum", fmt.Errorf("set categories: %w", domain.ErrInvalidRatioSum), http.StatusBadRequest},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"unknown category role", fmt.Errorf("%w %q", domain.ErrInvalidCategoryRole, "payroll"), http.StatusBadRequest},
		{"balance overflow", domain.ErrBalanceOverflow, http.StatusUnprocessableEntity},
		{"storage failure", domain.ErrStorageFailure, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapDomainError(tt.err))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	assert.Equal(t, "ok", decoded["status"])
}

func TestWriteDomainErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()

	writeDomainError(rr, "failed", fmt.Errorf("%w: connection reset", domain.ErrStorageFailure))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Error)
	assert.Empty(t, resp.Message)

	rr = httptest.NewRecorder()
	writeDomainError(rr, "failed", domain.ErrInsufficientFunds)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrInsufficientFunds.Error(), resp.Message)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))

	var v map[string]any
	assert.False(t, decodeJSON(rr, req, &v))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserIDMissing(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := userID(rr, req)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	id, ok := userID(httptest.NewRecorder(), req)
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}
