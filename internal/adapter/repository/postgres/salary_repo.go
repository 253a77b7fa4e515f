package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

const upsertSalary = `
INSERT INTO salaries (user_id, account_id, amount, pay_day, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE
SET account_id = EXCLUDED.account_id,
	amount = EXCLUDED.amount,
	pay_day = EXCLUDED.pay_day,
	updated_at = EXCLUDED.updated_at`

const getSalaryByUser = `
SELECT user_id, account_id, amount, pay_day, created_at, updated_at
FROM salaries WHERE user_id = $1`

// SalaryRepository implements usecase.SalaryRepository.
type SalaryRepository struct {
	db dbtx
}

// NewSalaryRepository creates a new SalaryRepository.
func NewSalaryRepository(pool *pgxpool.Pool) *SalaryRepository {
	return newSalaryRepositoryWithDB(pool)
}

func newSalaryRepositoryWithDB(db dbtx) *SalaryRepository {
	return &SalaryRepository{db: db}
}

// Upsert stores the user's salary.
func (r *SalaryRepository) Upsert(ctx context.Context, tx usecase.Transaction, salary *domain.Salary) error {
	_, err := queries(r.db, tx).Exec(ctx, upsertSalary,
		salary.UserID,
		salary.AccountID,
		int64(salary.Amount),
		salary.PayDay,
		salary.CreatedAt,
		salary.UpdatedAt,
	)

	return err
}

// GetByUser retrieves the user's salary.
func (r *SalaryRepository) GetByUser(ctx context.Context, userID string) (*domain.Salary, error) {
	var (
		s      domain.Salary
		amount int64
	)

	err := r.db.QueryRow(ctx, getSalaryByUser, userID).Scan(
		&s.UserID,
		&s.AccountID,
		&amount,
		&s.PayDay,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSalaryNotFound
		}

		return nil, err
	}

	s.Amount = domain.Money(amount)

	return &s, nil
}
