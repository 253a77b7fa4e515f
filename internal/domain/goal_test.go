package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGoal_ValidateContribution(t *testing.T) {
	tests := []struct {
		name        string
		current     Money
		amount      Money
		expectError error
	}{
		{name: "within target", current: 400000, amount: 100000},
		{name: "exactly reaches target", current: 470000, amount: 30000},
		{name: "exceeds target", current: 480000, amount: 30000, expectError: ErrExceedsTarget},
		{name: "zero amount", current: 0, amount: 0, expectError: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Goal{TargetAmount: 500000, CurrentAmount: tt.current}

			err := g.ValidateContribution(tt.amount)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestGoal_TargetAndName(t *testing.T) {
	target := GoalTarget(50000, 10)
	if target != 500000 {
		t.Fatalf("expected 500000, got %d", target)
	}

	if name := GoalName(target); name != "500000 savings" {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestGoal_NextContribution(t *testing.T) {
	g := &Goal{TargetAmount: 500000, CurrentAmount: 480000, MonthlyContribution: 50000}
	if got := g.NextContribution(); got != 20000 {
		t.Fatalf("expected remaining 20000, got %d", got)
	}

	g.CurrentAmount = 0
	if got := g.NextContribution(); got != 50000 {
		t.Fatalf("expected monthly 50000, got %d", got)
	}
}

func TestGoal_CompletionProbability(t *testing.T) {
	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		current  Money
		now      time.Time
		expected string
	}{
		{name: "none saved", current: 0, now: start, expected: "0"},
		{name: "one third", current: 100000, now: start.AddDate(0, 1, 0), expected: "33.33"},
		{name: "reached", current: 300000, now: start.AddDate(0, 2, 0), expected: "100"},
		{name: "duration elapsed", current: 100000, now: start.AddDate(0, 3, 0), expected: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Goal{
				TargetAmount:   300000,
				CurrentAmount:  tt.current,
				StartTime:      start,
				DurationMonths: 3,
			}

			got := g.CompletionProbability(tt.now)
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestGoal_IsTerminal(t *testing.T) {
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	g := &Goal{TargetAmount: 100, CurrentAmount: 10, StartTime: start, DurationMonths: 2}

	if g.IsTerminal(start.AddDate(0, 1, 0)) {
		t.Fatal("goal should be active one month in")
	}
	if !g.IsTerminal(start.AddDate(0, 2, 0)) {
		t.Fatal("goal should be terminal once duration elapsed")
	}

	g.CurrentAmount = 100
	if !g.IsTerminal(start) {
		t.Fatal("goal should be terminal once target reached")
	}
}

func TestGoal_Validate(t *testing.T) {
	g := &Goal{MonthlyContribution: 0, DurationMonths: 3}
	if err := g.Validate(); !errors.Is(err, ErrInvalidGoal) {
		t.Fatalf("expected ErrInvalidGoal, got %v", err)
	}

	g = &Goal{MonthlyContribution: 100, DurationMonths: 3, TargetAmount: 300}
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
