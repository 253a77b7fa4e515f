package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

func testGoal() *domain.Goal {
	return &domain.Goal{
		ID:                  "goal-1",
		UserID:              "user-1",
		AccountID:           "acc-pay",
		SavingsAccountID:    "acc-save",
		Name:                "12000 savings",
		TargetAmount:        12_000,
		CurrentAmount:       1_000,
		MonthlyContribution: 1_000,
		DurationMonths:      12,
	}
}

func ownerProgress(owner string) func(context.Context, string, string) (*usecase.GoalProgress, error) {
	return func(_ context.Context, userID, goalID string) (*usecase.GoalProgress, error) {
		if userID != owner {
			return nil, domain.ErrGoalNotFound
		}
		return &usecase.GoalProgress{GoalID: goalID, Probability: decimal.NewFromInt(50)}, nil
	}
}

func ownerGoal(owner string) func(context.Context, string, string) (*domain.Goal, error) {
	return func(_ context.Context, userID, goalID string) (*domain.Goal, error) {
		if userID != owner {
			return nil, domain.ErrGoalNotFound
		}
		goal := testGoal()
		goal.ID = goalID
		return goal, nil
	}
}

func noProgress(t *testing.T) func(context.Context, string, string) (*usecase.GoalProgress, error) {
	return func(context.Context, string, string) (*usecase.GoalProgress, error) {
		t.Error("ownership checks must not compute goal progress")
		return nil, nil
	}
}

func TestGoalHandler_Create(t *testing.T) {
	handler := NewGoalHandler(&goalServiceStub{
		createFn: func(_ context.Context, input usecase.CreateGoalInput) (*usecase.CreateGoalResult, error) {
			assert.Equal(t, "user-1", input.UserID)
			assert.Equal(t, 12, input.DurationMonths)
			return &usecase.CreateGoalResult{
				Goal:              testGoal(),
				SavingsAccount:    &domain.Account{ID: "acc-save", OwnerUserID: "user-1"},
				FirstContribution: false,
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(t, http.MethodPost, "/goals", "user-1", dto.CreateGoalRequest{
		AccountID:           "acc-pay",
		MonthlyContribution: 1_000,
		DurationMonths:      12,
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp dto.CreateGoalResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "goal-1", resp.Goal.ID)
	assert.False(t, resp.FirstContribution)
	assert.Nil(t, resp.Transfer)
}

func TestGoalHandler_Contribute(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		err    error
		status int
	}{
		{"success", "user-1", nil, http.StatusCreated},
		{"not owner", "user-2", nil, http.StatusNotFound},
		{"exceeds target", "user-1", domain.ErrExceedsTarget, http.StatusUnprocessableEntity},
		{"completed", "user-1", domain.ErrGoalCompleted, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewGoalHandler(&goalServiceStub{
				getFn:      ownerGoal("user-1"),
				progressFn: noProgress(t),
				contributeFn: func(_ context.Context, goalID string, amount domain.Money) (*usecase.ContributionResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					goal := testGoal()
					goal.CurrentAmount += amount
					return &usecase.ContributionResult{
						Goal:     goal,
						Transfer: &domain.TransferResult{TransferID: "tr-1", Amount: amount},
					}, nil
				},
			})

			rec := httptest.NewRecorder()
			handler.Contribute(rec, newRequest(t, http.MethodPost, "/goals/goal-1/contributions", tt.user,
				dto.ContributeRequest{Amount: 500}, "id", "goal-1"))

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusCreated {
				var resp dto.ContributionResponse
				decodeBody(t, rec, &resp)
				assert.Equal(t, int64(1_500), resp.Goal.CurrentAmount)
			}
		})
	}
}

func TestGoalHandler_ScheduleContribution(t *testing.T) {
	fireAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	handler := NewGoalHandler(&goalServiceStub{
		getFn:      ownerGoal("user-1"),
		progressFn: noProgress(t),
		scheduleFn: func(_ context.Context, goalID string, at time.Time) (*domain.ScheduledTransfer, error) {
			assert.Equal(t, "goal-1", goalID)
			assert.True(t, at.Equal(fireAt))
			st := pendingSchedule("st-9")
			st.GoalID = &goalID
			return st, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.ScheduleContribution(rec, newRequest(t, http.MethodPost, "/goals/goal-1/schedule", "user-1",
		dto.ScheduleContributionRequest{FireAt: fireAt}, "id", "goal-1"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp dto.ScheduleResponse
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.GoalID)
	assert.Equal(t, "goal-1", *resp.GoalID)
}

func TestGoalHandler_Progress(t *testing.T) {
	handler := NewGoalHandler(&goalServiceStub{progressFn: ownerProgress("user-1")})

	rec := httptest.NewRecorder()
	handler.Progress(rec, newRequest(t, http.MethodGet, "/goals/goal-1/progress", "user-1", nil, "id", "goal-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp usecase.GoalProgress
	decodeBody(t, rec, &resp)
	assert.Equal(t, "goal-1", resp.GoalID)
	assert.True(t, resp.Probability.Equal(decimal.NewFromInt(50)))
}

func TestGoalHandler_List(t *testing.T) {
	handler := NewGoalHandler(&goalServiceStub{
		listFn: func(context.Context, string) ([]*domain.Goal, error) {
			return []*domain.Goal{testGoal()}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, newRequest(t, http.MethodGet, "/goals", "user-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.GoalResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, int64(12_000), resp[0].TargetAmount)
}

func TestGoalHandler_Get(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		status int
	}{
		{"owner", "user-1", http.StatusOK},
		{"other user", "user-2", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewGoalHandler(&goalServiceStub{getFn: ownerGoal("user-1")})

			rec := httptest.NewRecorder()
			handler.Get(rec, newRequest(t, http.MethodGet, "/goals/goal-1", tt.user, nil, "id", "goal-1"))

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				var resp dto.GoalResponse
				decodeBody(t, rec, &resp)
				assert.Equal(t, "goal-1", resp.ID)
				assert.Equal(t, int64(1_000), resp.CurrentAmount)
			}
		})
	}
}

func TestGoalHandler_Entries(t *testing.T) {
	goalID := "goal-1"
	handler := NewGoalHandler(&goalServiceStub{
		entriesFn: func(_ context.Context, userID, id string, limit, offset int) ([]*domain.Entry, error) {
			if userID != "user-1" {
				return nil, domain.ErrGoalNotFound
			}
			assert.Equal(t, goalID, id)
			assert.Equal(t, 5, limit)
			assert.Equal(t, 10, offset)
			return []*domain.Entry{
				{ID: "e-1", TransferID: "tr-1", Direction: domain.DirectionOut, Amount: 1_000, GoalID: &goalID, Sequence: 1},
				{ID: "e-2", TransferID: "tr-1", Direction: domain.DirectionIn, Amount: 1_000, GoalID: &goalID, Sequence: 2},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Entries(rec, newRequest(t, http.MethodGet, "/goals/goal-1/transactions?limit=5&offset=10", "user-1", nil, "id", "goal-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp []dto.EntryResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "tr-1", resp[0].TransferID)
	require.NotNil(t, resp[1].GoalID)
	assert.Equal(t, goalID, *resp[1].GoalID)

	rec = httptest.NewRecorder()
	handler.Entries(rec, newRequest(t, http.MethodGet, "/goals/goal-1/transactions", "user-2", nil, "id", "goal-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
