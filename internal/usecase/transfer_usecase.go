package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/infrastructure/metrics"
)

// TransferUseCase is the only mutator of account balances.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	clock       Clock
	metrics     *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase. retrier and m may be nil.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
) *TransferUseCase {
	if retrier == nil {
		retrier = directRetrier{}
	}

	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		clock:       SystemClock(),
		metrics:     m,
	}
}

// WithClock replaces the clock used to timestamp entries.
func (uc *TransferUseCase) WithClock(clock Clock) *TransferUseCase {
	uc.clock = clock
	return uc
}

// TransferInput is one money movement. GoalID attributes the entries to a
// savings goal.
type TransferInput struct {
	GoalID *string
	domain.TransferIntent
}

// Execute moves money in its own transaction, retrying on deadlocks and
// serialization failures. Errors are either business errors from the domain
// package or wrap domain.ErrStorageFailure; in both cases nothing was written.
func (uc *TransferUseCase) Execute(ctx context.Context, input TransferInput) (*domain.TransferResult, error) {
	start := time.Now()

	if err := input.Validate(); err != nil {
		uc.recordError(err)
		return nil, err
	}

	var result *domain.TransferResult

	err := uc.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		r, err := uc.ExecuteTx(txCtx, tx, input)
		if err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		result = r

		return nil
	})
	if err != nil {
		uc.recordError(err)
		return nil, StorageError(err)
	}

	uc.Committed(result, start)

	return result, nil
}

// ExecuteTx performs the transfer inside a caller-owned transaction. The
// caller commits; the returned result is only meaningful after that.
func (uc *TransferUseCase) ExecuteTx(ctx context.Context, tx Transaction, input TransferInput) (*domain.TransferResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Lock in ascending id order so opposite transfers cannot deadlock.
	ids := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	fromAccount := accountMap[input.FromAccountID]
	toAccount := accountMap[input.ToAccountID]

	if fromAccount == nil || toAccount == nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := fromAccount.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	if err := toAccount.ValidateCredit(input.Amount); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	transferID := uc.idGen.Generate()

	// Debit entry (from account)
	fromNewBalance := fromAccount.ApplyDebit(input.Amount)
	fromEntry := uc.newEntry(transferID, fromAccount, fromAccount, toAccount, domain.DirectionOut, fromNewBalance, input, now)

	if err := uc.entryRepo.Create(ctx, tx, fromEntry); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, fromAccount.ID, fromNewBalance, now); err != nil {
		return nil, err
	}

	// Credit entry (to account)
	toNewBalance := toAccount.ApplyCredit(input.Amount)
	toEntry := uc.newEntry(transferID, toAccount, fromAccount, toAccount, domain.DirectionIn, toNewBalance, input, now)

	if err := uc.entryRepo.Create(ctx, tx, toEntry); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, toAccount.ID, toNewBalance, now); err != nil {
		return nil, err
	}

	result := &domain.TransferResult{
		TransferID:     transferID,
		FromAccountID:  fromAccount.ID,
		ToAccountID:    toAccount.ID,
		Description:    input.Description,
		Amount:         input.Amount,
		NewFromBalance: fromNewBalance,
		NewToBalance:   toNewBalance,
		ExecutedAt:     now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewTransferExecutedEvent(uc.idGen.Generate(), result)); err != nil {
		return nil, err
	}

	return result, nil
}

// Committed records metrics for a transfer whose transaction committed.
func (uc *TransferUseCase) Committed(result *domain.TransferResult, started time.Time) {
	if uc.metrics == nil || result == nil {
		return
	}

	uc.metrics.TransfersExecuted.Inc()
	uc.metrics.TransferAmount.Observe(float64(result.Amount))
	uc.metrics.TransferDuration.Observe(time.Since(started).Seconds())
}

func (uc *TransferUseCase) newEntry(
	transferID string,
	account, from, to *domain.Account,
	direction domain.Direction,
	balanceAfter domain.Money,
	input TransferInput,
	now time.Time,
) *domain.Entry {
	return &domain.Entry{
		ID:                uc.idGen.Generate(),
		TransferID:        transferID,
		AccountID:         account.ID,
		FromAccountNumber: from.Number,
		ToAccountNumber:   to.Number,
		Direction:         direction,
		Amount:            input.Amount,
		BalanceAfter:      balanceAfter,
		Description:       input.Description,
		GoalID:            input.GoalID,
		CreatedAt:         now,
	}
}

func (uc *TransferUseCase) recordError(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.TransferErrors.WithLabelValues(errorType(err)).Inc()
}

// StorageError passes business errors through and marks everything else as
// domain.ErrStorageFailure.
func StorageError(err error) error {
	if err == nil || domain.IsBusinessError(err) || errors.Is(err, domain.ErrStorageFailure) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrExceedsTarget):
		return "exceeds_target"
	case errors.Is(err, domain.ErrBalanceOverflow):
		return "balance_overflow"
	case domain.IsBusinessError(err):
		return "validation"
	default:
		return "storage"
	}
}
