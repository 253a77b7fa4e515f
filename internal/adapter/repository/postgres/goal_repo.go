package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

const goalColumns = `id, user_id, account_id, savings_account_id, name, target_amount, current_amount,
	monthly_contribution, duration_months, start_time, created_at, updated_at`

const createGoal = `
INSERT INTO goals (` + goalColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const getGoalByID = `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`

const getGoalByIDForUpdate = `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 FOR UPDATE`

const updateGoalCurrentAmount = `UPDATE goals SET current_amount = $2, updated_at = $3 WHERE id = $1`

const listGoalsByUser = `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at, id`

// GoalRepository implements usecase.GoalRepository.
type GoalRepository struct {
	db dbtx
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return newGoalRepositoryWithDB(pool)
}

func newGoalRepositoryWithDB(db dbtx) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create persists a goal.
func (r *GoalRepository) Create(ctx context.Context, tx usecase.Transaction, goal *domain.Goal) error {
	_, err := queries(r.db, tx).Exec(ctx, createGoal,
		goal.ID,
		goal.UserID,
		goal.AccountID,
		goal.SavingsAccountID,
		goal.Name,
		int64(goal.TargetAmount),
		int64(goal.CurrentAmount),
		int64(goal.MonthlyContribution),
		goal.DurationMonths,
		goal.StartTime,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

// GetByID retrieves a goal.
func (r *GoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	return r.get(ctx, r.db, getGoalByID, id)
}

// GetByIDForUpdate retrieves a goal and locks its row.
func (r *GoalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Goal, error) {
	return r.get(ctx, tx.(*Tx).PgxTx(), getGoalByIDForUpdate, id)
}

func (r *GoalRepository) get(ctx context.Context, db dbtx, query, id string) (*domain.Goal, error) {
	goal, err := scanGoal(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}

		return nil, err
	}

	return goal, nil
}

// UpdateCurrentAmount stores the saved amount of a goal.
func (r *GoalRepository) UpdateCurrentAmount(ctx context.Context, tx usecase.Transaction, id string, amount domain.Money, updatedAt time.Time) error {
	tag, err := tx.(*Tx).PgxTx().Exec(ctx, updateGoalCurrentAmount, id, int64(amount), updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}

	return nil
}

// ListByUser lists a user's goals.
func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Goal, error) {
	rows, err := r.db.Query(ctx, listGoalsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}

	return goals, rows.Err()
}

func scanGoal(row rowScanner) (*domain.Goal, error) {
	var (
		g                        domain.Goal
		target, current, monthly int64
	)

	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.AccountID,
		&g.SavingsAccountID,
		&g.Name,
		&target,
		&current,
		&monthly,
		&g.DurationMonths,
		&g.StartTime,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.TargetAmount = domain.Money(target)
	g.CurrentAmount = domain.Money(current)
	g.MonthlyContribution = domain.Money(monthly)

	return &g, nil
}
