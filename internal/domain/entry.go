package domain

import "time"

// Direction tells whether an entry moved money into or out of its account.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Entry is one immutable line of an account's transaction log. Every
// transfer writes exactly two entries sharing TransferID: OUT on the source
// and IN on the destination.
type Entry struct {
	CreatedAt         time.Time
	GoalID            *string
	ID                string
	TransferID        string
	AccountID         string
	FromAccountNumber string
	ToAccountNumber   string
	Description       string
	Direction         Direction
	Amount            Money
	BalanceAfter      Money
	Sequence          int64
}

// SignedAmount is negative for OUT entries.
func (e *Entry) SignedAmount() Money {
	if e.Direction == DirectionOut {
		return -e.Amount
	}
	return e.Amount
}

// BalanceBefore reconstructs the account balance prior to the entry.
func (e *Entry) BalanceBefore() Money {
	return e.BalanceAfter - e.SignedAmount()
}

// IsPairOf reports whether e and other form the OUT/IN pair of one transfer.
func (e *Entry) IsPairOf(other *Entry) bool {
	if e.TransferID != other.TransferID || e.Direction == other.Direction {
		return false
	}

	return e.Amount == other.Amount &&
		e.Description == other.Description &&
		e.FromAccountNumber == other.FromAccountNumber &&
		e.ToAccountNumber == other.ToAccountNumber
}

// LedgerTotals aggregates every account for the conservation check.
type LedgerTotals struct {
	TotalBalance        Money
	TotalOpeningBalance Money
	AccountCount        int
	NegativeAccounts    int
}

// Conserved reports whether transfers neither created nor destroyed money.
func (t *LedgerTotals) Conserved() bool {
	return t.TotalBalance == t.TotalOpeningBalance
}
