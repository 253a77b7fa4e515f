package domain

import (
	"errors"
	"testing"
)

func TestAllocateSalary(t *testing.T) {
	tests := []struct {
		salary   Money
		ratio    int
		expected Money
	}{
		{salary: 1000000, ratio: 30, expected: 300000},
		{salary: 1000000, ratio: 70, expected: 700000},
		{salary: 1000001, ratio: 33, expected: 330000},
		{salary: 999, ratio: 0, expected: 0},
		{salary: 999, ratio: 100, expected: 999},
	}

	for _, tt := range tests {
		if got := AllocateSalary(tt.salary, tt.ratio); got != tt.expected {
			t.Errorf("AllocateSalary(%d, %d) = %d, want %d", tt.salary, tt.ratio, got, tt.expected)
		}
	}
}

func TestValidateCategorySet(t *testing.T) {
	payroll := func(ratio int) *Category {
		return &Category{Name: "Payroll", Ratio: ratio, Role: CategoryRolePayroll}
	}
	spending := func(name string, ratio int) *Category {
		return &Category{Name: name, Ratio: ratio, Role: CategoryRoleSpending}
	}

	tests := []struct {
		name        string
		categories  []*Category
		expectError error
	}{
		{
			name:       "valid set",
			categories: []*Category{payroll(0), spending("Savings", 30), spending("Living", 70)},
		},
		{
			name:        "sum below 100",
			categories:  []*Category{payroll(0), spending("Savings", 30), spending("Living", 60)},
			expectError: ErrInvalidRatioSum,
		},
		{
			name:        "ratio out of range",
			categories:  []*Category{payroll(0), spending("Savings", 130), spending("Living", -30)},
			expectError: ErrInvalidRatio,
		},
		{
			name:        "missing payroll",
			categories:  []*Category{spending("Savings", 30), spending("Living", 70)},
			expectError: ErrPayrollCategory,
		},
		{
			name:        "two payroll",
			categories:  []*Category{payroll(0), payroll(30), spending("Living", 70)},
			expectError: ErrPayrollCategory,
		},
		{
			name:        "lowercase role",
			categories:  []*Category{{Name: "Payroll", Ratio: 40, Role: "payroll"}, spending("Living", 60)},
			expectError: ErrInvalidCategoryRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategorySet(tt.categories)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestCategory_Recompute(t *testing.T) {
	c := &Category{Ratio: 25}
	c.Recompute(400000)

	if c.ComputedAmount != 100000 {
		t.Fatalf("expected 100000, got %d", c.ComputedAmount)
	}
}
