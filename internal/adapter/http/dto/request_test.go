package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{
		Number:         "110-123-456789",
		BankName:       "Shinhan",
		OpeningBalance: 1_000_000,
	}

	got := req.ToUseCaseInput("user-1")
	want := usecase.CreateAccountInput{
		OwnerUserID:    "user-1",
		Number:         "110-123-456789",
		BankName:       "Shinhan",
		OpeningBalance: 1_000_000,
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestCreateScheduleRequest_DecodesEmbeddedTransfer(t *testing.T) {
	body := `{"from_account_id":"acc-1","to_account_id":"acc-2","amount":300000,"description":"rent","fire_at":"2024-03-25T09:00:00Z"}`

	var req CreateScheduleRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := req.ToUseCaseInput()
	wantFireAt := time.Date(2024, 3, 25, 9, 0, 0, 0, time.UTC)

	if !got.FireAt.Equal(wantFireAt) {
		t.Fatalf("FireAt = %s, want %s", got.FireAt, wantFireAt)
	}
	if got.GoalID != nil {
		t.Fatalf("expected no goal id, got %v", *got.GoalID)
	}

	want := domain.TransferIntent{FromAccountID: "acc-1", ToAccountID: "acc-2", Description: "rent", Amount: 300000}
	if got.TransferIntent != want {
		t.Fatalf("TransferIntent = %+v, want %+v", got.TransferIntent, want)
	}
}

func TestSetCategoriesRequest_ToUseCaseInput(t *testing.T) {
	linked := "acc-2"
	req := &SetCategoriesRequest{Categories: []CategoryRequest{
		{Name: "payroll", Role: "PAYROLL", Ratio: 40},
		{Name: "rent", Ratio: 60, LinkedAccountID: &linked},
	}}

	got := req.ToUseCaseInput()
	if len(got) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(got))
	}
	if got[0].Role != domain.CategoryRolePayroll || got[0].Ratio != 40 {
		t.Fatalf("unexpected payroll input: %+v", got[0])
	}
	if got[1].Role != "" || got[1].LinkedAccountID == nil || *got[1].LinkedAccountID != "acc-2" {
		t.Fatalf("unexpected spending input: %+v", got[1])
	}
}

func TestGoalRequests_ToUseCaseInput(t *testing.T) {
	goal := (&CreateGoalRequest{AccountID: "acc-1", MonthlyContribution: 100000, DurationMonths: 6}).ToUseCaseInput("user-1")
	if goal.UserID != "user-1" || goal.MonthlyContribution != 100000 || goal.DurationMonths != 6 {
		t.Fatalf("unexpected goal input: %+v", goal)
	}

	salary := (&SetSalaryRequest{AccountID: "acc-1", Amount: 3_000_000, PayDay: 25}).ToUseCaseInput("user-1")
	if salary.UserID != "user-1" || salary.Amount != 3_000_000 || salary.PayDay != 25 {
		t.Fatalf("unexpected salary input: %+v", salary)
	}
}
