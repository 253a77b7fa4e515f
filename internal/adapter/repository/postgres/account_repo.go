package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

const accountColumns = `id, owner_user_id, number, bank_name, balance, opening_balance, version, created_at, updated_at`

const createAccount = `
INSERT INTO accounts (` + accountColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const getAccountByID = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

// Rows are locked in primary key order so concurrent transfers touching the
// same pair always acquire locks in the same sequence.
const getAccountsByIDsForUpdate = `
SELECT ` + accountColumns + ` FROM accounts
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`

const updateAccountBalance = `
UPDATE accounts SET balance = $2, version = version + 1, updated_at = $3
WHERE id = $1`

const listAccountsByOwner = `SELECT ` + accountColumns + ` FROM accounts WHERE owner_user_id = $1 ORDER BY created_at, id`

const listAccounts = `SELECT ` + accountColumns + ` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db dbtx
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepositoryWithDB(pool)
}

func newAccountRepositoryWithDB(db dbtx) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.CreateTx(ctx, nil, account)
}

// CreateTx creates a new account, inside tx when one is given.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := queries(r.db, tx).Exec(ctx, createAccount,
		account.ID,
		account.OwnerUserID,
		account.Number,
		account.BankName,
		int64(account.Balance),
		int64(account.OpeningBalance),
		account.Version,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateAccount
		}

		return err
	}

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, getAccountByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := tx.(*Tx).PgxTx().Query(ctx, getAccountsByIDsForUpdate, ids)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, updatedAt time.Time) error {
	tag, err := tx.(*Tx).PgxTx().Exec(ctx, updateAccountBalance, id, int64(balance), updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// ListByOwner lists the accounts of a user.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerUserID string) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, listAccountsByOwner, ownerUserID)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, listAccounts, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a                       domain.Account
		balance, openingBalance int64
	)

	err := row.Scan(
		&a.ID,
		&a.OwnerUserID,
		&a.Number,
		&a.BankName,
		&balance,
		&openingBalance,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Balance = domain.Money(balance)
	a.OpeningBalance = domain.Money(openingBalance)

	return &a, nil
}
