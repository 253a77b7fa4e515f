package postgres

import (
	"context"
	"time"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// NullOutboxRepository drops every event. Integration tests use it where
// outbox rows would only get in the way.
type NullOutboxRepository struct{}

// NewNullOutboxRepository creates a new NullOutboxRepository.
func NewNullOutboxRepository() *NullOutboxRepository {
	return &NullOutboxRepository{}
}

func (r *NullOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (r *NullOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *NullOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return nil
}

func (r *NullOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *NullOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

var (
	_ usecase.OutboxRepository            = (*NullOutboxRepository)(nil)
	_ usecase.OutboxRepository            = (*OutboxRepository)(nil)
	_ usecase.AccountRepository           = (*AccountRepository)(nil)
	_ usecase.EntryRepository             = (*EntryRepository)(nil)
	_ usecase.ScheduledTransferRepository = (*ScheduledTransferRepository)(nil)
	_ usecase.GoalRepository              = (*GoalRepository)(nil)
	_ usecase.CategoryRepository          = (*CategoryRepository)(nil)
	_ usecase.SalaryRepository            = (*SalaryRepository)(nil)
	_ usecase.LedgerRepository            = (*LedgerRepository)(nil)
	_ usecase.TransactionManager          = (*TxManager)(nil)
	_ usecase.Retrier                     = (*Retrier)(nil)
	_ usecase.IDGenerator                 = (*ULIDGenerator)(nil)
)
