package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryRole marks the category that represents the payroll account itself.
type CategoryRole string

const (
	CategoryRolePayroll  CategoryRole = "PAYROLL"
	CategoryRoleSpending CategoryRole = "SPENDING"
)

// IsValid reports whether r is a known role.
func (r CategoryRole) IsValid() bool {
	return r == CategoryRolePayroll || r == CategoryRoleSpending
}

// Category is a named share of the salary routed to a linked account.
type Category struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LinkedAccountID *string
	ID              string
	UserID          string
	Name            string
	Role            CategoryRole
	Ratio           int
	ComputedAmount  Money
}

// IsPayroll reports whether the category is the pass-through payroll bucket.
func (c *Category) IsPayroll() bool {
	return c.Role == CategoryRolePayroll
}

// Recompute refreshes ComputedAmount for salary.
func (c *Category) Recompute(salary Money) {
	c.ComputedAmount = AllocateSalary(salary, c.Ratio)
}

// AllocateSalary returns salary*ratio/100 floored to whole minor units.
func AllocateSalary(salary Money, ratio int) Money {
	share := salary.Decimal().Mul(decimal.NewFromInt(int64(ratio))).Div(hundred)
	return MoneyFromDecimal(share)
}

// ValidateCategorySet checks a user's complete category set: ratios within
// 0..100 summing to exactly 100 and a single payroll category.
func ValidateCategorySet(categories []*Category) error {
	sum := 0
	payroll := 0

	for _, c := range categories {
		if err := ValidateName(c.Name); err != nil {
			return err
		}

		if c.Ratio < 0 || c.Ratio > 100 {
			return fmt.Errorf("%w: %q has ratio %d", ErrInvalidRatio, c.Name, c.Ratio)
		}

		if !c.Role.IsValid() {
			return fmt.Errorf("%w %q", ErrInvalidCategoryRole, c.Role)
		}

		if c.IsPayroll() {
			payroll++
		}

		sum += c.Ratio
	}

	if sum != 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidRatioSum, sum)
	}

	if payroll != 1 {
		return ErrPayrollCategory
	}

	return nil
}
