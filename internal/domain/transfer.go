package domain

import "time"

// Descriptions written on entries created by the core.
const (
	DescriptionAutoTransfer = "automated transfer"
	DescriptionGoalSaving   = "goal saving"
)

// TransferIntent is a request to move Amount from one account to another.
type TransferIntent struct {
	FromAccountID string
	ToAccountID   string
	Description   string
	Amount        Money
}

// Validate validates transfer request.
func (t TransferIntent) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	return ValidateDescription(t.Description)
}

// TransferResult is the outcome of a committed transfer.
type TransferResult struct {
	ExecutedAt     time.Time
	TransferID     string
	FromAccountID  string
	ToAccountID    string
	Description    string
	Amount         Money
	NewFromBalance Money
	NewToBalance   Money
}
