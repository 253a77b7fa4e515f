package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

func pendingSchedule(id string) *domain.ScheduledTransfer {
	return &domain.ScheduledTransfer{
		ID:            id,
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Description:   "rent",
		Amount:        100,
		Status:        domain.ScheduleStatusPending,
		FireAt:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestScheduleHandler_Create(t *testing.T) {
	fireAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	handler := NewScheduleHandler(&scheduleServiceStub{
		scheduleFn: func(_ context.Context, input usecase.ScheduleInput) (*domain.ScheduledTransfer, error) {
			assert.True(t, input.FireAt.Equal(fireAt))
			assert.Equal(t, domain.Money(100), input.Amount)
			return pendingSchedule("st-1"), nil
		},
	}, ownedBy("user-1"))

	req := dto.CreateScheduleRequest{FireAt: fireAt}
	req.FromAccountID = "acc-a"
	req.ToAccountID = "acc-b"
	req.Description = "rent"
	req.Amount = 100

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(t, http.MethodPost, "/schedules", "user-1", req))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp dto.ScheduleResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "st-1", resp.ID)
	assert.Equal(t, "PENDING", resp.Status)
}

func TestScheduleHandler_Create_MissingFireAt(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceStub{}, ownedBy("user-1"))

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(t, http.MethodPost, "/schedules", "user-1", dto.CreateScheduleRequest{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleHandler_Get(t *testing.T) {
	tests := []struct {
		name   string
		owner  string
		getErr error
		status int
	}{
		{"owner", "user-1", nil, http.StatusOK},
		{"other user", "user-2", nil, http.StatusForbidden},
		{"missing", "user-1", domain.ErrScheduleNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewScheduleHandler(&scheduleServiceStub{
				getFn: func(_ context.Context, id string) (*domain.ScheduledTransfer, error) {
					if tt.getErr != nil {
						return nil, tt.getErr
					}
					return pendingSchedule(id), nil
				},
			}, ownedBy(tt.owner))

			rec := httptest.NewRecorder()
			handler.Get(rec, newRequest(t, http.MethodGet, "/schedules/st-1", "user-1", nil, "id", "st-1"))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestScheduleHandler_Cancel(t *testing.T) {
	tests := []struct {
		name      string
		cancelErr error
		status    int
	}{
		{"pending", nil, http.StatusOK},
		{"already fired", domain.ErrScheduleNotPending, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewScheduleHandler(&scheduleServiceStub{
				getFn: func(_ context.Context, id string) (*domain.ScheduledTransfer, error) {
					return pendingSchedule(id), nil
				},
				cancelFn: func(_ context.Context, id string) (*domain.ScheduledTransfer, error) {
					if tt.cancelErr != nil {
						return nil, tt.cancelErr
					}
					st := pendingSchedule(id)
					st.Status = domain.ScheduleStatusCancelled
					return st, nil
				},
			}, ownedBy("user-1"))

			rec := httptest.NewRecorder()
			handler.Cancel(rec, newRequest(t, http.MethodDelete, "/schedules/st-1", "user-1", nil, "id", "st-1"))

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				var resp dto.ScheduleResponse
				decodeBody(t, rec, &resp)
				assert.Equal(t, "CANCELLED", resp.Status)
			}
		})
	}
}
