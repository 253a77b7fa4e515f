package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/adapter/http/middleware"
	"github.com/bufl/ledger/internal/usecase"
)

// run executes the root command against url as user-1.
func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--url", url, "--user", "user-1"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lon...", truncate("longerstring", 6))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	printJSON(&out, struct {
		A int `json:"a"`
	}{A: 1})

	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}

func TestConsistencyCommand(t *testing.T) {
	tests := []struct {
		name       string
		consistent bool
		wantErr    bool
		wantOut    string
	}{
		{"consistent", true, false, "Consistency check PASSED"},
		{"inconsistent", false, true, "Consistency check FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/ledger/consistency", r.URL.Path)
				assert.Equal(t, "user-1", r.Header.Get(middleware.UserIDHeader))
				writeJSON(w, http.StatusOK, dto.ConsistencyResponse{Consistent: tt.consistent, AccountCount: 3})
			}))
			defer srv.Close()

			out, err := run(t, srv.URL, "ledger", "consistency")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestScheduleCancelCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/schedules/st-1", r.URL.Path)
		writeJSON(w, http.StatusOK, dto.ScheduleResponse{ID: "st-1", Status: "CANCELLED", Amount: 100})
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "schedule", "cancel", "st-1")

	require.NoError(t, err)
	assert.Contains(t, out, "CANCELLED")
}

func TestScheduleStatusCommandReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "failed to get scheduled transfer", Message: "scheduled transfer not found"})
	}))
	defer srv.Close()

	_, err := run(t, srv.URL, "schedule", "status", "missing")

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestSalarySplitCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusAccepted, []dto.ScheduleResponse{
			{ID: "st-1", Status: "PENDING", Amount: 400},
			{ID: "st-2", Status: "PENDING", Amount: 600},
		})
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "salary", "split")

	require.NoError(t, err)
	assert.Contains(t, out, "Scheduled 2 transfers")
}

func TestGoalContributeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req dto.ContributeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(250), req.Amount)
		writeJSON(w, http.StatusCreated, dto.ContributionResponse{
			Goal: &dto.GoalResponse{ID: "goal-1", CurrentAmount: 250, TargetAmount: 1000},
		})
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "goal", "contribute", "goal-1", "250")

	require.NoError(t, err)
	assert.Contains(t, out, "Goal goal-1: 250/1000")

	_, err = run(t, srv.URL, "goal", "contribute", "goal-1", "abc")
	assert.Error(t, err)
}

func TestGoalTransactionsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/goals/goal-1/transactions", r.URL.Path)
		writeJSON(w, http.StatusOK, []dto.EntryResponse{
			{Sequence: 7, TransferID: "tr-3", Direction: "OUT", Amount: 1000, FromAccountNumber: "UA-001", ToAccountNumber: "GOAL-goal-1"},
			{Sequence: 8, TransferID: "tr-3", Direction: "IN", Amount: 1000, FromAccountNumber: "UA-001", ToAccountNumber: "GOAL-goal-1"},
		})
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "goal", "transactions", "goal-1")

	require.NoError(t, err)
	assert.Contains(t, out, "tr-3")
	assert.Contains(t, out, "UA-001 -> GOAL-goal-1")
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("\n")))
}

func TestPrintReconciliation(t *testing.T) {
	var out bytes.Buffer
	err := printReconciliation(&out, &usecase.ReconciliationReport{
		TotalAccounts:      2,
		ReconciledAccounts: 1,
		LedgerConsistent:   true,
		Discrepancies: []*usecase.ReconciliationResult{
			{AccountID: "acc-2", RecordedBalance: 10, CalculatedBalance: 7, Difference: 3},
		},
	})

	assert.Error(t, err)
	assert.Contains(t, out.String(), "Accounts reconciled: 1/2")
	assert.Contains(t, out.String(), "acc-2 recorded=10 calculated=7 diff=3")
}
