package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

const entryColumns = `sequence, id, transfer_id, account_id, from_account_number, to_account_number,
	direction, amount, balance_after, description, goal_id, created_at`

const createEntry = `
INSERT INTO entries (id, transfer_id, account_id, from_account_number, to_account_number,
	direction, amount, balance_after, description, goal_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING sequence`

const getEntriesByTransfer = `SELECT ` + entryColumns + ` FROM entries WHERE transfer_id = $1 ORDER BY sequence`

const getEntriesByAccount = `
SELECT ` + entryColumns + ` FROM entries
WHERE account_id = $1
ORDER BY sequence
LIMIT $2 OFFSET $3`

const listOutgoingEntries = `
SELECT ` + entryColumns + ` FROM entries
WHERE account_id = $1 AND direction = 'OUT' AND description = $2
ORDER BY sequence DESC
LIMIT $3 OFFSET $4`

const listEntriesByGoal = `
SELECT ` + entryColumns + ` FROM entries
WHERE goal_id = $1
ORDER BY sequence
LIMIT $2 OFFSET $3`

const sumEntriesByAccount = `
SELECT
	COALESCE(SUM(amount) FILTER (WHERE direction = 'IN'), 0),
	COALESCE(SUM(amount) FILTER (WHERE direction = 'OUT'), 0)
FROM entries
WHERE account_id = $1`

const latestEntryByAccount = `
SELECT ` + entryColumns + ` FROM entries
WHERE account_id = $1
ORDER BY sequence DESC
LIMIT 1`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db dbtx
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepositoryWithDB(pool)
}

func newEntryRepositoryWithDB(db dbtx) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create appends an entry within a transaction and records its sequence.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	return tx.(*Tx).PgxTx().QueryRow(ctx, createEntry,
		entry.ID,
		entry.TransferID,
		entry.AccountID,
		entry.FromAccountNumber,
		entry.ToAccountNumber,
		string(entry.Direction),
		int64(entry.Amount),
		int64(entry.BalanceAfter),
		entry.Description,
		ptrText(entry.GoalID),
		entry.CreatedAt,
	).Scan(&entry.Sequence)
}

// GetByTransfer retrieves the entries of a transfer.
func (r *EntryRepository) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, getEntriesByTransfer, transferID)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// GetByAccount retrieves entries for an account in commit order.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, getEntriesByAccount, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// ListOutgoing lists OUT entries with description, newest first.
func (r *EntryRepository) ListOutgoing(ctx context.Context, accountID, description string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, listOutgoingEntries, accountID, description, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// ListByGoal lists entries attributed to a goal in commit order.
func (r *EntryRepository) ListByGoal(ctx context.Context, goalID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, listEntriesByGoal, goalID, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// SumByAccount returns the IN and OUT totals and the newest entry.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (domain.Money, domain.Money, *domain.Entry, error) {
	var in, out int64
	if err := r.db.QueryRow(ctx, sumEntriesByAccount, accountID).Scan(&in, &out); err != nil {
		return 0, 0, nil, err
	}

	latest, err := scanEntry(r.db.QueryRow(ctx, latestEntryByAccount, accountID))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, nil, err
		}
		latest = nil
	}

	return domain.Money(in), domain.Money(out), latest, nil
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var (
		e                    domain.Entry
		direction            string
		amount, balanceAfter int64
		goalID               pgtype.Text
	)

	err := row.Scan(
		&e.Sequence,
		&e.ID,
		&e.TransferID,
		&e.AccountID,
		&e.FromAccountNumber,
		&e.ToAccountNumber,
		&direction,
		&amount,
		&balanceAfter,
		&e.Description,
		&goalID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Direction = domain.Direction(direction)
	e.Amount = domain.Money(amount)
	e.BalanceAfter = domain.Money(balanceAfter)
	e.GoalID = textPtr(goalID)

	return &e, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}

	s := t.String

	return &s
}

func ptrText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}

	return pgtype.Text{String: *s, Valid: true}
}
