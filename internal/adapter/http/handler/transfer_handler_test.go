package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

func TestTransferHandler_Create_Success(t *testing.T) {
	stub := &transferServiceStub{
		executeFn: func(_ context.Context, input usecase.TransferInput) (*domain.TransferResult, error) {
			assert.Nil(t, input.GoalID)
			return &domain.TransferResult{
				TransferID:     "tr-1",
				FromAccountID:  input.FromAccountID,
				ToAccountID:    input.ToAccountID,
				Description:    input.Description,
				Amount:         input.Amount,
				NewFromBalance: 700,
				NewToBalance:   300,
			}, nil
		},
	}
	handler := NewTransferHandler(stub, stub, ownedBy("user-1"))

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(t, http.MethodPost, "/transfers", "user-1", dto.CreateTransferRequest{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Description:   "rent",
		Amount:        300,
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp dto.TransferResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "tr-1", resp.TransferID)
	assert.Equal(t, int64(700), resp.NewFromBalance)
	assert.Equal(t, int64(300), resp.NewToBalance)
}

func TestTransferHandler_Create_RejectsForeignSource(t *testing.T) {
	stub := &transferServiceStub{
		executeFn: func(context.Context, usecase.TransferInput) (*domain.TransferResult, error) {
			t.Fatal("transfer must not execute")
			return nil, nil
		},
	}
	handler := NewTransferHandler(stub, stub, ownedBy("someone-else"))

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(t, http.MethodPost, "/transfers", "user-1", dto.CreateTransferRequest{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        1,
	}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransferHandler_Create_BusinessErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"destination missing", domain.ErrAccountNotFound, http.StatusNotFound},
		{"storage", domain.ErrStorageFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &transferServiceStub{
				executeFn: func(context.Context, usecase.TransferInput) (*domain.TransferResult, error) {
					return nil, tt.err
				},
			}
			handler := NewTransferHandler(stub, stub, ownedBy("user-1"))

			rec := httptest.NewRecorder()
			handler.Create(rec, newRequest(t, http.MethodPost, "/transfers", "user-1", dto.CreateTransferRequest{
				FromAccountID: "acc-a",
				ToAccountID:   "acc-b",
				Amount:        10,
			}))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestTransferHandler_History(t *testing.T) {
	stub := &transferServiceStub{
		historyFn: func(_ context.Context, userID string, limit, offset int) ([]*domain.Entry, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, 5, limit)
			assert.Equal(t, 10, offset)
			return []*domain.Entry{{ID: "e1", Direction: domain.DirectionOut, Amount: 100}}, nil
		},
	}
	handler := NewTransferHandler(stub, stub, ownedBy("user-1"))

	rec := httptest.NewRecorder()
	handler.History(rec, newRequest(t, http.MethodGet, "/transfers/history?limit=5&offset=10", "user-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.EntryResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "OUT", resp[0].Direction)
}
