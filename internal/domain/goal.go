package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Goal is a savings target funded by monthly contributions into a dedicated
// savings account.
type Goal struct {
	StartTime           time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ID                  string
	UserID              string
	AccountID           string
	SavingsAccountID    string
	Name                string
	TargetAmount        Money
	CurrentAmount       Money
	MonthlyContribution Money
	DurationMonths      int
}

// GoalTarget is the amount saved by contributing monthly for months.
func GoalTarget(monthly Money, months int) Money {
	return monthly * Money(months)
}

// GoalName is the generated display name for a goal of target.
func GoalName(target Money) string {
	return fmt.Sprintf("%s savings", target)
}

// Validate checks goal parameters.
func (g *Goal) Validate() error {
	if !g.MonthlyContribution.IsPositive() {
		return fmt.Errorf("%w: monthly contribution must be positive", ErrInvalidGoal)
	}

	if g.DurationMonths <= 0 {
		return fmt.Errorf("%w: duration must be at least one month", ErrInvalidGoal)
	}

	if g.TargetAmount < g.MonthlyContribution {
		return fmt.Errorf("%w: target below monthly contribution", ErrInvalidGoal)
	}

	return nil
}

// EndTime is when the goal's duration elapses.
func (g *Goal) EndTime() time.Time {
	return g.StartTime.AddDate(0, g.DurationMonths, 0)
}

// Remaining is how much is still missing to reach the target.
func (g *Goal) Remaining() Money {
	if g.CurrentAmount >= g.TargetAmount {
		return 0
	}
	return g.TargetAmount - g.CurrentAmount
}

// ValidateContribution checks that amount may be added to the goal.
func (g *Goal) ValidateContribution(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if g.CurrentAmount+amount > g.TargetAmount {
		return ErrExceedsTarget
	}

	return nil
}

// NextContribution is the monthly amount capped at what remains.
func (g *Goal) NextContribution() Money {
	return min(g.MonthlyContribution, g.Remaining())
}

// ElapsedMonths counts calendar month boundaries crossed since StartTime.
func (g *Goal) ElapsedMonths(now time.Time) int {
	return int(now.Month()) - int(g.StartTime.Month()) + 12*(now.Year()-g.StartTime.Year())
}

// IsTerminal reports whether the goal is reached or its duration elapsed.
func (g *Goal) IsTerminal(now time.Time) bool {
	return g.CurrentAmount >= g.TargetAmount || g.ElapsedMonths(now) >= g.DurationMonths
}

// CompletionProbability is current/target as a percentage with two decimals,
// capped at 100. It floors at 100 once the duration has elapsed.
func (g *Goal) CompletionProbability(now time.Time) decimal.Decimal {
	if g.DurationMonths-g.ElapsedMonths(now) <= 0 {
		return hundred
	}

	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}

	p := g.CurrentAmount.Decimal().Mul(hundred).DivRound(g.TargetAmount.Decimal(), 2)
	if p.GreaterThan(hundred) {
		return hundred
	}

	return p
}
