package usecase

import (
	"context"

	"github.com/bufl/ledger/internal/domain"
)

// EntryUseCase handles entry business logic.
type EntryUseCase struct {
	entryRepo EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		entryRepo: entryRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries for an account in commit order.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.Entry, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.entryRepo.GetByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// GetEntriesByTransfer lists the OUT/IN pair of a transfer.
func (uc *EntryUseCase) GetEntriesByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	return uc.entryRepo.GetByTransfer(ctx, transferID)
}
