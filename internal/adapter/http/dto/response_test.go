package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:             "acc-1",
		OwnerUserID:    "user-1",
		Number:         "110-1",
		Balance:        12345,
		OpeningBalance: 20000,
		Version:        2,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	resp := AccountFromDomain(account)
	if resp.ID != account.ID || resp.Balance != 12345 || resp.OpeningBalance != 20000 || resp.Version != 2 {
		t.Fatalf("unexpected account response: %+v", resp)
	}
}

func TestScheduleFromDomain_OmitsUnsetFields(t *testing.T) {
	st := &domain.ScheduledTransfer{
		ID:     "st-1",
		Status: domain.ScheduleStatusPending,
		Amount: 500,
	}

	raw, err := json.Marshal(ScheduleFromDomain(st))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"executed_at", "transfer_id", "goal_id", "failure_reason"} {
		if _, ok := fields[key]; ok {
			t.Fatalf("expected %s to be omitted, got %s", key, raw)
		}
	}
	if fields["status"] != "PENDING" {
		t.Fatalf("expected PENDING status, got %v", fields["status"])
	}
}

func TestCreateGoalFromUseCase_WithoutFirstContribution(t *testing.T) {
	resp := CreateGoalFromUseCase(&usecase.CreateGoalResult{
		Goal:           &domain.Goal{ID: "goal-1", TargetAmount: 600000},
		SavingsAccount: &domain.Account{ID: "acc-goal"},
	})

	if resp.Transfer != nil || resp.FirstContribution {
		t.Fatalf("expected no first contribution, got %+v", resp)
	}
	if resp.Goal.TargetAmount != 600000 || resp.SavingsAccount.ID != "acc-goal" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestConsistencyFromUseCase_EmptyUnpairedIsArray(t *testing.T) {
	raw, err := json.Marshal(ConsistencyFromUseCase(&usecase.ConsistencyReport{Consistent: true}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["unpaired_transfers"].([]any); !ok {
		t.Fatalf("expected unpaired_transfers array, got %s", raw)
	}
}
