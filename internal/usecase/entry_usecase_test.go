package usecase_test

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
	"github.com/bufl/ledger/internal/usecase/mocks"
)

func TestEntryUseCase_GetEntriesByAccount(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "explicit limit", limit: 10, wantLimit: 10},
		{name: "default limit", limit: 0, wantLimit: 20},
		{name: "capped limit", limit: 1000, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			entryRepo := mocks.NewMockEntryRepository(ctrl)
			entryRepo.EXPECT().GetByAccount(gomock.Any(), "acc-1", tt.wantLimit, 0).Return([]*domain.Entry{
				{ID: "e1", AccountID: "acc-1", Direction: domain.DirectionIn, Amount: 100, BalanceAfter: 100},
				{ID: "e2", AccountID: "acc-1", Direction: domain.DirectionOut, Amount: 50, BalanceAfter: 50},
			}, nil)

			uc := usecase.NewEntryUseCase(entryRepo)

			entries, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{
				AccountID: "acc-1",
				Limit:     tt.limit,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(entries) != 2 {
				t.Errorf("expected 2 entries, got %d", len(entries))
			}
		})
	}
}

func TestEntryUseCase_GetEntriesByTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().GetByTransfer(gomock.Any(), "tx-1").Return([]*domain.Entry{
		{ID: "e1", TransferID: "tx-1", AccountID: "acc-1", Direction: domain.DirectionOut, Amount: 100},
		{ID: "e2", TransferID: "tx-1", AccountID: "acc-2", Direction: domain.DirectionIn, Amount: 100},
	}, nil)

	uc := usecase.NewEntryUseCase(entryRepo)

	entries, err := uc.GetEntriesByTransfer(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if !entries[0].IsPairOf(entries[1]) {
		t.Error("expected entries to form a pair")
	}
}
