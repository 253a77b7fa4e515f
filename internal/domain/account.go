package domain

import (
	"math"
	"time"
)

// Account is a balance-holding ledger account owned by a user.
type Account struct {
	ID             string
	OwnerUserID    string
	Number         string
	BankName       string
	Balance        Money
	OpeningBalance Money
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the account before it is first stored.
func (a *Account) Validate() error {
	if err := ValidateAccountNumber(a.Number); err != nil {
		return err
	}

	if a.OpeningBalance < 0 {
		return ErrInvalidAmount
	}

	return nil
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount Money) error {
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks that crediting amount keeps the balance representable.
func (a *Account) ValidateCredit(amount Money) error {
	if amount > 0 && a.Balance > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount Money) Money {
	return a.Balance - amount
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount Money) Money {
	return a.Balance + amount
}
