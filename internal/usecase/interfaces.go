package usecase

import (
	"context"
	"time"

	"github.com/bufl/ledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the rows in ascending id order. Missing ids are
	// omitted from the result.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance domain.Money, updatedAt time.Time) error
	ListByOwner(ctx context.Context, ownerUserID string) ([]*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for the transaction log.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error)
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	ListOutgoing(ctx context.Context, accountID, description string, limit, offset int) ([]*domain.Entry, error)
	ListByGoal(ctx context.Context, goalID string, limit, offset int) ([]*domain.Entry, error)
	// SumByAccount returns the totals of IN and OUT entries and the newest
	// entry, which is nil when the account has no history.
	SumByAccount(ctx context.Context, accountID string) (in, out domain.Money, latest *domain.Entry, err error)
}

// ScheduledTransferRepository defines durable storage for deferred transfers.
type ScheduledTransferRepository interface {
	Create(ctx context.Context, tx Transaction, st *domain.ScheduledTransfer) error
	GetByID(ctx context.Context, id string) (*domain.ScheduledTransfer, error)
	// ClaimPending locks the row if it is still PENDING and not held by
	// another worker. It returns nil when there is nothing to claim.
	ClaimPending(ctx context.Context, tx Transaction, id string) (*domain.ScheduledTransfer, error)
	// UpdateStatus persists a transition out of PENDING. It returns
	// domain.ErrScheduleNotPending when the stored row already left PENDING.
	UpdateStatus(ctx context.Context, tx Transaction, st *domain.ScheduledTransfer) error
	ListPending(ctx context.Context) ([]*domain.ScheduledTransfer, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledTransfer, error)
}

// GoalRepository defines data access for savings goals.
type GoalRepository interface {
	Create(ctx context.Context, tx Transaction, goal *domain.Goal) error
	GetByID(ctx context.Context, id string) (*domain.Goal, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Goal, error)
	UpdateCurrentAmount(ctx context.Context, tx Transaction, id string, amount domain.Money, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Goal, error)
}

// CategoryRepository defines data access for salary categories.
type CategoryRepository interface {
	ReplaceForUser(ctx context.Context, tx Transaction, userID string, categories []*domain.Category) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	UpdateComputedAmounts(ctx context.Context, tx Transaction, categories []*domain.Category) error
	LinkAccount(ctx context.Context, id, accountID string, updatedAt time.Time) error
}

// SalaryRepository defines data access for user salaries.
type SalaryRepository interface {
	Upsert(ctx context.Context, tx Transaction, salary *domain.Salary) error
	GetByUser(ctx context.Context, userID string) (*domain.Salary, error)
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	Totals(ctx context.Context) (*domain.LedgerTotals, error)
	UnpairedTransfers(ctx context.Context, limit int) ([]string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs operations that failed on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Get returns ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
