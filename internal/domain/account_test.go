package domain

import (
	"errors"
	"math"
	"testing"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     Money
		debitAmount Money
		expectError bool
	}{
		{
			name:        "debit more than balance",
			balance:     10000,
			debitAmount: 30000,
			expectError: true,
		},
		{
			name:        "debit exact balance",
			balance:     100,
			debitAmount: 100,
			expectError: false,
		},
		{
			name:        "debit less than balance",
			balance:     100000,
			debitAmount: 30000,
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.debitAmount)

			if tt.expectError && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("expected ErrInsufficientFunds, got %v", err)
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_ApplyDebitCredit(t *testing.T) {
	acc := &Account{Balance: 100000}

	if got := acc.ApplyDebit(30000); got != 70000 {
		t.Errorf("debit: expected 70000, got %d", got)
	}

	if got := acc.ApplyCredit(30000); got != 130000 {
		t.Errorf("credit: expected 130000, got %d", got)
	}

	if acc.Balance != 100000 {
		t.Errorf("apply must not mutate the account, balance is %d", acc.Balance)
	}
}

func TestAccount_ValidateCredit(t *testing.T) {
	acc := &Account{Balance: math.MaxInt64 - 100}

	if err := acc.ValidateCredit(100); err != nil {
		t.Errorf("credit up to the limit: unexpected error %v", err)
	}

	if err := acc.ValidateCredit(101); !errors.Is(err, ErrBalanceOverflow) {
		t.Errorf("expected ErrBalanceOverflow, got %v", err)
	}
}

func TestAccount_Validate(t *testing.T) {
	t.Parallel()

	valid := &Account{Number: "110-234-567890", OpeningBalance: 0}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	badNumber := &Account{Number: "110 234"}
	if err := badNumber.Validate(); !errors.Is(err, ErrInvalidAccountNumber) {
		t.Fatalf("expected ErrInvalidAccountNumber, got %v", err)
	}

	negative := &Account{Number: "110", OpeningBalance: -1}
	if err := negative.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
