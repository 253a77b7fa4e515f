package usecase

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent")
)

// maxUnpairedReported caps the transfer ids listed in a report.
const maxUnpairedReported = 100

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// ConsistencyReport is the result of a ledger-wide check.
type ConsistencyReport struct {
	CheckedAt           time.Time
	UnpairedTransfers   []string
	TotalBalance        int64
	TotalOpeningBalance int64
	AccountCount        int
	NegativeAccounts    int
	Consistent          bool
}

// CheckConsistency verifies conservation of money, that no balance is
// negative and that every transfer has exactly one OUT and one IN entry.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, StorageError(err)
	}

	unpaired, err := uc.ledgerRepo.UnpairedTransfers(ctx, maxUnpairedReported)
	if err != nil {
		return nil, StorageError(err)
	}

	report := &ConsistencyReport{
		CheckedAt:           time.Now().UTC(),
		UnpairedTransfers:   unpaired,
		TotalBalance:        int64(totals.TotalBalance),
		TotalOpeningBalance: int64(totals.TotalOpeningBalance),
		AccountCount:        totals.AccountCount,
		NegativeAccounts:    totals.NegativeAccounts,
	}

	report.Consistent = totals.Conserved() && totals.NegativeAccounts == 0 && len(unpaired) == 0

	return report, nil
}

// Verify returns ErrInconsistentLedger when the check fails.
func (uc *LedgerUseCase) Verify(ctx context.Context) error {
	report, err := uc.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	if !report.Consistent {
		return ErrInconsistentLedger
	}

	return nil
}
