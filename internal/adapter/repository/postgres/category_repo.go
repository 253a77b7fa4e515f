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

const categoryColumns = `id, user_id, name, role, ratio, computed_amount, linked_account_id, created_at, updated_at`

const deleteCategoriesByUser = `DELETE FROM categories WHERE user_id = $1`

const createCategory = `
INSERT INTO categories (` + categoryColumns + `, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const listCategoriesByUser = `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY position`

const getCategoryByID = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

const updateCategoryComputedAmount = `UPDATE categories SET computed_amount = $2, updated_at = $3 WHERE id = $1`

const linkCategoryAccount = `UPDATE categories SET linked_account_id = $2, updated_at = $3 WHERE id = $1`

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	db dbtx
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return newCategoryRepositoryWithDB(pool)
}

func newCategoryRepositoryWithDB(db dbtx) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ReplaceForUser swaps the user's whole category set, keeping input order.
func (r *CategoryRepository) ReplaceForUser(ctx context.Context, tx usecase.Transaction, userID string, categories []*domain.Category) error {
	db := tx.(*Tx).PgxTx()

	if _, err := db.Exec(ctx, deleteCategoriesByUser, userID); err != nil {
		return err
	}

	for i, c := range categories {
		_, err := db.Exec(ctx, createCategory,
			c.ID,
			userID,
			c.Name,
			string(c.Role),
			c.Ratio,
			int64(c.ComputedAmount),
			ptrText(c.LinkedAccountID),
			c.CreatedAt,
			c.UpdatedAt,
			i,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListByUser lists a user's categories in the order they were defined.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, listCategoriesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// GetByID retrieves a category.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, getCategoryByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}

		return nil, err
	}

	return c, nil
}

// UpdateComputedAmounts stores recomputed salary shares.
func (r *CategoryRepository) UpdateComputedAmounts(ctx context.Context, tx usecase.Transaction, categories []*domain.Category) error {
	db := tx.(*Tx).PgxTx()

	for _, c := range categories {
		if _, err := db.Exec(ctx, updateCategoryComputedAmount, c.ID, int64(c.ComputedAmount), c.UpdatedAt); err != nil {
			return err
		}
	}

	return nil
}

// LinkAccount points a category at its destination account.
func (r *CategoryRepository) LinkAccount(ctx context.Context, id, accountID string, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, linkCategoryAccount, id, accountID, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}

	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c        domain.Category
		role     string
		computed int64
		linked   pgtype.Text
	)

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&role,
		&c.Ratio,
		&computed,
		&linked,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Role = domain.CategoryRole(role)
	c.ComputedAmount = domain.Money(computed)
	c.LinkedAccountID = textPtr(linked)

	return &c, nil
}
