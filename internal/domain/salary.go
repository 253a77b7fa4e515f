package domain

import (
	"fmt"
	"time"
)

// Salary is the user's monthly income and the account it lands in.
type Salary struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    string
	AccountID string
	Amount    Money
	PayDay    int
}

// Validate checks the salary definition.
func (s *Salary) Validate() error {
	if !s.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidSalary)
	}

	if s.PayDay < 1 || s.PayDay > 31 {
		return fmt.Errorf("%w: pay day must be between 1 and 31", ErrInvalidSalary)
	}

	if s.AccountID == "" {
		return fmt.Errorf("%w: account is required", ErrInvalidSalary)
	}

	return nil
}
