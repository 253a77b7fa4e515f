package usecase

import (
	"context"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	clock       Clock
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		clock:       SystemClock(),
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerUserID    string
	Number         string
	BankName       string
	OpeningBalance domain.Money
}

// CreateAccount creates a new account. The opening balance is the only way
// money enters the ledger.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := uc.clock.Now()

	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		OwnerUserID:    input.OwnerUserID,
		Number:         input.Number,
		BankName:       input.BankName,
		Balance:        input.OpeningBalance,
		OpeningBalance: input.OpeningBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, StorageError(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.CreateTx(txCtx, tx, account); err != nil {
		return nil, StorageError(err)
	}

	if err := uc.outboxRepo.Create(txCtx, tx, domain.NewAccountCreatedEvent(uc.idGen.Generate(), account)); err != nil {
		return nil, StorageError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, StorageError(err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsByOwner lists the accounts of a user.
func (uc *AccountUseCase) ListAccountsByOwner(ctx context.Context, ownerUserID string) ([]*domain.Account, error) {
	return uc.accountRepo.ListByOwner(ctx, ownerUserID)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
