package dto

import (
	"time"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// Amounts on the wire are integer minor units.

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Number         string `json:"number"`
	BankName       string `json:"bank_name"`
	OpeningBalance int64  `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(userID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerUserID:    userID,
		Number:         r.Number,
		BankName:       r.BankName,
		OpeningBalance: domain.Money(r.OpeningBalance),
	}
}

// CreateTransferRequest represents a request to move money now.
type CreateTransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Description   string `json:"description"`
	Amount        int64  `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{TransferIntent: r.intent()}
}

func (r *CreateTransferRequest) intent() domain.TransferIntent {
	return domain.TransferIntent{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Description:   r.Description,
		Amount:        domain.Money(r.Amount),
	}
}

// CreateScheduleRequest represents a request to move money later.
type CreateScheduleRequest struct {
	FireAt time.Time `json:"fire_at"`
	CreateTransferRequest
}

// ToUseCaseInput converts to use case input.
func (r *CreateScheduleRequest) ToUseCaseInput() usecase.ScheduleInput {
	return usecase.ScheduleInput{
		FireAt:         r.FireAt,
		TransferIntent: r.intent(),
	}
}

// SetSalaryRequest represents a request to set the user's salary.
type SetSalaryRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	PayDay    int    `json:"pay_day"`
}

// ToUseCaseInput converts to use case input.
func (r *SetSalaryRequest) ToUseCaseInput(userID string) usecase.SetSalaryInput {
	return usecase.SetSalaryInput{
		UserID:    userID,
		AccountID: r.AccountID,
		Amount:    domain.Money(r.Amount),
		PayDay:    r.PayDay,
	}
}

// CategoryRequest is one category of a SetCategoriesRequest.
type CategoryRequest struct {
	LinkedAccountID *string `json:"linked_account_id,omitempty"`
	Name            string  `json:"name"`
	Role            string  `json:"role,omitempty"`
	Ratio           int     `json:"ratio"`
}

// SetCategoriesRequest replaces the user's category set.
type SetCategoriesRequest struct {
	Categories []CategoryRequest `json:"categories"`
}

// ToUseCaseInput converts to use case input.
func (r *SetCategoriesRequest) ToUseCaseInput() []usecase.CategoryInput {
	inputs := make([]usecase.CategoryInput, len(r.Categories))
	for i, c := range r.Categories {
		inputs[i] = usecase.CategoryInput{
			LinkedAccountID: c.LinkedAccountID,
			Name:            c.Name,
			Role:            domain.CategoryRole(c.Role),
			Ratio:           c.Ratio,
		}
	}
	return inputs
}

// LinkCategoryRequest links a category to an account.
type LinkCategoryRequest struct {
	AccountID string `json:"account_id"`
}

// CreateGoalRequest represents a request to open a savings goal.
type CreateGoalRequest struct {
	AccountID           string `json:"account_id"`
	MonthlyContribution int64  `json:"monthly_contribution"`
	DurationMonths      int    `json:"duration_months"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateGoalRequest) ToUseCaseInput(userID string) usecase.CreateGoalInput {
	return usecase.CreateGoalInput{
		UserID:              userID,
		AccountID:           r.AccountID,
		MonthlyContribution: domain.Money(r.MonthlyContribution),
		DurationMonths:      r.DurationMonths,
	}
}

// ContributeRequest adds money to a goal.
type ContributeRequest struct {
	Amount int64 `json:"amount"`
}

// ScheduleContributionRequest schedules the next goal contribution.
type ScheduleContributionRequest struct {
	FireAt time.Time `json:"fire_at"`
}
