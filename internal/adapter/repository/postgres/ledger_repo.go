package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bufl/ledger/internal/domain"
)

const ledgerTotals = `
SELECT
	COALESCE(SUM(balance), 0),
	COALESCE(SUM(opening_balance), 0),
	COUNT(*),
	COUNT(*) FILTER (WHERE balance < 0)
FROM accounts`

// A transfer is paired when it has exactly one OUT and one IN entry with the
// same amount and description.
const unpairedTransfers = `
SELECT transfer_id FROM entries
GROUP BY transfer_id
HAVING COUNT(*) <> 2
	OR COUNT(*) FILTER (WHERE direction = 'OUT') <> 1
	OR MIN(amount) <> MAX(amount)
	OR MIN(description) <> MAX(description)
ORDER BY transfer_id
LIMIT $1`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db dbtx
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepositoryWithDB(pool)
}

func newLedgerRepositoryWithDB(db dbtx) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Totals sums balances and opening balances across all accounts.
func (r *LedgerRepository) Totals(ctx context.Context) (*domain.LedgerTotals, error) {
	var (
		balance, opening int64
		count, negative  int64
	)

	if err := r.db.QueryRow(ctx, ledgerTotals).Scan(&balance, &opening, &count, &negative); err != nil {
		return nil, err
	}

	return &domain.LedgerTotals{
		TotalBalance:        domain.Money(balance),
		TotalOpeningBalance: domain.Money(opening),
		AccountCount:        int(count),
		NegativeAccounts:    int(negative),
	}, nil
}

// UnpairedTransfers lists up to limit transfer ids whose entries do not form
// an OUT/IN pair.
func (r *LedgerRepository) UnpairedTransfers(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, unpairedTransfers, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
