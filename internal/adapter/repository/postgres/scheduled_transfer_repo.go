package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

const scheduledTransferColumns = `id, from_account_id, to_account_id, amount, description, goal_id, fire_at,
	status, failure_reason, transfer_id, created_at, updated_at, executed_at`

const createScheduledTransfer = `
INSERT INTO scheduled_transfers (` + scheduledTransferColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const getScheduledTransferByID = `SELECT ` + scheduledTransferColumns + ` FROM scheduled_transfers WHERE id = $1`

// SKIP LOCKED makes a row held by another worker look already claimed.
const claimPendingScheduledTransfer = `
SELECT ` + scheduledTransferColumns + ` FROM scheduled_transfers
WHERE id = $1 AND status = 'PENDING'
FOR UPDATE SKIP LOCKED`

const updateScheduledTransferStatus = `
UPDATE scheduled_transfers
SET status = $2, failure_reason = $3, transfer_id = $4, executed_at = $5, updated_at = $6
WHERE id = $1 AND status = 'PENDING'`

const listPendingScheduledTransfers = `
SELECT ` + scheduledTransferColumns + ` FROM scheduled_transfers
WHERE status = 'PENDING'
ORDER BY fire_at, id`

const listDueScheduledTransfers = `
SELECT ` + scheduledTransferColumns + ` FROM scheduled_transfers
WHERE status = 'PENDING' AND fire_at <= $1
ORDER BY fire_at, id
LIMIT $2`

// ScheduledTransferRepository implements usecase.ScheduledTransferRepository.
type ScheduledTransferRepository struct {
	db dbtx
}

// NewScheduledTransferRepository creates a new ScheduledTransferRepository.
func NewScheduledTransferRepository(pool *pgxpool.Pool) *ScheduledTransferRepository {
	return newScheduledTransferRepositoryWithDB(pool)
}

func newScheduledTransferRepositoryWithDB(db dbtx) *ScheduledTransferRepository {
	return &ScheduledTransferRepository{db: db}
}

// Create persists a scheduled transfer.
func (r *ScheduledTransferRepository) Create(ctx context.Context, tx usecase.Transaction, st *domain.ScheduledTransfer) error {
	_, err := queries(r.db, tx).Exec(ctx, createScheduledTransfer,
		st.ID,
		st.FromAccountID,
		st.ToAccountID,
		int64(st.Amount),
		st.Description,
		ptrText(st.GoalID),
		st.FireAt,
		string(st.Status),
		st.FailureReason,
		ptrText(st.TransferID),
		st.CreatedAt,
		st.UpdatedAt,
		ptrTimestamptz(st.ExecutedAt),
	)

	return err
}

// GetByID retrieves a scheduled transfer.
func (r *ScheduledTransferRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledTransfer, error) {
	st, err := scanScheduledTransfer(r.db.QueryRow(ctx, getScheduledTransferByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}

		return nil, err
	}

	return st, nil
}

// ClaimPending locks a PENDING row for this transaction. It returns nil when
// the row is not PENDING or is locked by someone else.
func (r *ScheduledTransferRepository) ClaimPending(ctx context.Context, tx usecase.Transaction, id string) (*domain.ScheduledTransfer, error) {
	st, err := scanScheduledTransfer(tx.(*Tx).PgxTx().QueryRow(ctx, claimPendingScheduledTransfer, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return st, nil
}

// UpdateStatus persists the transition out of PENDING.
func (r *ScheduledTransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, st *domain.ScheduledTransfer) error {
	tag, err := tx.(*Tx).PgxTx().Exec(ctx, updateScheduledTransferStatus,
		st.ID,
		string(st.Status),
		st.FailureReason,
		ptrText(st.TransferID),
		ptrTimestamptz(st.ExecutedAt),
		st.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotPending
	}

	return nil
}

// ListPending lists every PENDING transfer by fire time.
func (r *ScheduledTransferRepository) ListPending(ctx context.Context) ([]*domain.ScheduledTransfer, error) {
	rows, err := r.db.Query(ctx, listPendingScheduledTransfers)
	if err != nil {
		return nil, err
	}

	return collectScheduledTransfers(rows)
}

// ListDue lists up to limit PENDING transfers with fire_at <= now.
func (r *ScheduledTransferRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledTransfer, error) {
	rows, err := r.db.Query(ctx, listDueScheduledTransfers, now, limit)
	if err != nil {
		return nil, err
	}

	return collectScheduledTransfers(rows)
}

func collectScheduledTransfers(rows pgx.Rows) ([]*domain.ScheduledTransfer, error) {
	defer rows.Close()

	var out []*domain.ScheduledTransfer
	for rows.Next() {
		st, err := scanScheduledTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}

	return out, rows.Err()
}

func scanScheduledTransfer(row rowScanner) (*domain.ScheduledTransfer, error) {
	var (
		st                 domain.ScheduledTransfer
		amount             int64
		status             string
		goalID, transferID pgtype.Text
		executedAt         pgtype.Timestamptz
	)

	err := row.Scan(
		&st.ID,
		&st.FromAccountID,
		&st.ToAccountID,
		&amount,
		&st.Description,
		&goalID,
		&st.FireAt,
		&status,
		&st.FailureReason,
		&transferID,
		&st.CreatedAt,
		&st.UpdatedAt,
		&executedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Amount = domain.Money(amount)
	st.Status = domain.ScheduleStatus(status)
	st.GoalID = textPtr(goalID)
	st.TransferID = textPtr(transferID)
	st.ExecutedAt = timestamptzPtr(executedAt)

	return &st, nil
}

func ptrTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func timestamptzPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}

	t := ts.Time

	return &t
}
