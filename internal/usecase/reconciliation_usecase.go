package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bufl/ledger/internal/domain"
)

// ReconciliationUseCase handles balance reconciliation operations
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledger      *LedgerUseCase
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledger:      NewLedgerUseCase(ledgerRepo),
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	LastChecked       time.Time
	AccountID         string
	RecordedBalance   domain.Money
	CalculatedBalance domain.Money
	Difference        domain.Money
	LatestSnapshot    domain.Money
	IsReconciled      bool
}

// ReconcileAccount replays the account's log: opening + ΣIN − ΣOUT must equal
// the stored balance, and so must the newest entry's balance snapshot.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	in, out, latest, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, StorageError(err)
	}

	calculated := account.OpeningBalance + in - out

	snapshot := account.OpeningBalance
	if latest != nil {
		snapshot = latest.BalanceAfter
	}

	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        account.Balance - calculated,
		LatestSnapshot:    snapshot,
		IsReconciled:      calculated == account.Balance && snapshot == account.Balance,
		LastChecked:       time.Now().UTC(),
	}, nil
}

// ReconcileAllAccounts reconciles all accounts in the system
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	limit, offset := domain.ValidatePagination(1000, 0)

	var results []*ReconciliationResult

	for {
		accounts, err := uc.accountRepo.List(ctx, limit, offset)
		if err != nil {
			return nil, StorageError(err)
		}

		for _, account := range accounts {
			result, err := uc.ReconcileAccount(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			results = append(results, result)
		}

		if len(accounts) < limit {
			return results, nil
		}

		offset += limit
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CheckedAt          time.Time
	Consistency        *ConsistencyReport
	Discrepancies      []*ReconciliationResult
	TotalAccounts      int
	ReconciledAccounts int
	LedgerConsistent   bool
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	consistency, err := uc.ledger.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		Consistency:      consistency,
		LedgerConsistent: consistency.Consistent,
		CheckedAt:        time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
