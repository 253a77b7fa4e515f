package dto

import (
	"time"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	OwnerUserID    string    `json:"owner_user_id"`
	Number         string    `json:"number"`
	BankName       string    `json:"bank_name"`
	Balance        int64     `json:"balance"`
	OpeningBalance int64     `json:"opening_balance"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		OwnerUserID:    a.OwnerUserID,
		Number:         a.Number,
		BankName:       a.BankName,
		Balance:        int64(a.Balance),
		OpeningBalance: int64(a.OpeningBalance),
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransferResponse represents a committed transfer in API responses.
type TransferResponse struct {
	ExecutedAt     time.Time `json:"executed_at"`
	TransferID     string    `json:"transfer_id"`
	FromAccountID  string    `json:"from_account_id"`
	ToAccountID    string    `json:"to_account_id"`
	Description    string    `json:"description"`
	Amount         int64     `json:"amount"`
	NewFromBalance int64     `json:"new_from_balance"`
	NewToBalance   int64     `json:"new_to_balance"`
}

// TransferFromDomain converts a transfer result to response.
func TransferFromDomain(t *domain.TransferResult) *TransferResponse {
	if t == nil {
		return nil
	}
	return &TransferResponse{
		ExecutedAt:     t.ExecutedAt,
		TransferID:     t.TransferID,
		FromAccountID:  t.FromAccountID,
		ToAccountID:    t.ToAccountID,
		Description:    t.Description,
		Amount:         int64(t.Amount),
		NewFromBalance: int64(t.NewFromBalance),
		NewToBalance:   int64(t.NewToBalance),
	}
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	CreatedAt         time.Time `json:"created_at"`
	GoalID            *string   `json:"goal_id,omitempty"`
	ID                string    `json:"id"`
	TransferID        string    `json:"transfer_id"`
	AccountID         string    `json:"account_id"`
	FromAccountNumber string    `json:"from_account_number"`
	ToAccountNumber   string    `json:"to_account_number"`
	Direction         string    `json:"direction"`
	Description       string    `json:"description"`
	Amount            int64     `json:"amount"`
	BalanceAfter      int64     `json:"balance_after"`
	Sequence          int64     `json:"sequence"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		CreatedAt:         e.CreatedAt,
		GoalID:            e.GoalID,
		ID:                e.ID,
		TransferID:        e.TransferID,
		AccountID:         e.AccountID,
		FromAccountNumber: e.FromAccountNumber,
		ToAccountNumber:   e.ToAccountNumber,
		Direction:         string(e.Direction),
		Description:       e.Description,
		Amount:            int64(e.Amount),
		BalanceAfter:      int64(e.BalanceAfter),
		Sequence:          e.Sequence,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ScheduleResponse represents a scheduled transfer.
type ScheduleResponse struct {
	FireAt        time.Time  `json:"fire_at"`
	CreatedAt     time.Time  `json:"created_at"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	GoalID        *string    `json:"goal_id,omitempty"`
	TransferID    *string    `json:"transfer_id,omitempty"`
	ID            string     `json:"id"`
	FromAccountID string     `json:"from_account_id"`
	ToAccountID   string     `json:"to_account_id"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	Amount        int64      `json:"amount"`
}

// ScheduleFromDomain converts a scheduled transfer to response.
func ScheduleFromDomain(st *domain.ScheduledTransfer) *ScheduleResponse {
	return &ScheduleResponse{
		FireAt:        st.FireAt,
		CreatedAt:     st.CreatedAt,
		ExecutedAt:    st.ExecutedAt,
		GoalID:        st.GoalID,
		TransferID:    st.TransferID,
		ID:            st.ID,
		FromAccountID: st.FromAccountID,
		ToAccountID:   st.ToAccountID,
		Description:   st.Description,
		Status:        string(st.Status),
		FailureReason: st.FailureReason,
		Amount:        int64(st.Amount),
	}
}

// SchedulesFromDomain converts scheduled transfers to responses.
func SchedulesFromDomain(schedules []*domain.ScheduledTransfer) []*ScheduleResponse {
	result := make([]*ScheduleResponse, len(schedules))
	for i, st := range schedules {
		result[i] = ScheduleFromDomain(st)
	}
	return result
}

// CategoryResponse represents a salary category.
type CategoryResponse struct {
	LinkedAccountID *string `json:"linked_account_id,omitempty"`
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Role            string  `json:"role"`
	Ratio           int     `json:"ratio"`
	ComputedAmount  int64   `json:"computed_amount"`
}

// CategoriesFromDomain converts categories to responses.
func CategoriesFromDomain(categories []*domain.Category) []*CategoryResponse {
	result := make([]*CategoryResponse, len(categories))
	for i, c := range categories {
		result[i] = &CategoryResponse{
			LinkedAccountID: c.LinkedAccountID,
			ID:              c.ID,
			Name:            c.Name,
			Role:            string(c.Role),
			Ratio:           c.Ratio,
			ComputedAmount:  int64(c.ComputedAmount),
		}
	}
	return result
}

// SalaryResponse represents the salary and its recomputed categories.
type SalaryResponse struct {
	AccountID  string              `json:"account_id"`
	Categories []*CategoryResponse `json:"categories"`
	Amount     int64               `json:"amount"`
	PayDay     int                 `json:"pay_day"`
}

// GoalResponse represents a savings goal.
type GoalResponse struct {
	StartTime           time.Time `json:"start_time"`
	ID                  string    `json:"id"`
	AccountID           string    `json:"account_id"`
	SavingsAccountID    string    `json:"savings_account_id"`
	Name                string    `json:"name"`
	TargetAmount        int64     `json:"target_amount"`
	CurrentAmount       int64     `json:"current_amount"`
	MonthlyContribution int64     `json:"monthly_contribution"`
	DurationMonths      int       `json:"duration_months"`
}

// GoalFromDomain converts a goal to response.
func GoalFromDomain(g *domain.Goal) *GoalResponse {
	return &GoalResponse{
		StartTime:           g.StartTime,
		ID:                  g.ID,
		AccountID:           g.AccountID,
		SavingsAccountID:    g.SavingsAccountID,
		Name:                g.Name,
		TargetAmount:        int64(g.TargetAmount),
		CurrentAmount:       int64(g.CurrentAmount),
		MonthlyContribution: int64(g.MonthlyContribution),
		DurationMonths:      g.DurationMonths,
	}
}

// GoalsFromDomain converts goals to responses.
func GoalsFromDomain(goals []*domain.Goal) []*GoalResponse {
	result := make([]*GoalResponse, len(goals))
	for i, g := range goals {
		result[i] = GoalFromDomain(g)
	}
	return result
}

// CreateGoalResponse reports a new goal and its first contribution.
type CreateGoalResponse struct {
	Goal              *GoalResponse     `json:"goal"`
	SavingsAccount    *AccountResponse  `json:"savings_account"`
	Transfer          *TransferResponse `json:"transfer,omitempty"`
	FirstContribution bool              `json:"first_contribution"`
}

// CreateGoalFromUseCase converts a CreateGoalResult to response.
func CreateGoalFromUseCase(r *usecase.CreateGoalResult) *CreateGoalResponse {
	return &CreateGoalResponse{
		Goal:              GoalFromDomain(r.Goal),
		SavingsAccount:    AccountFromDomain(r.SavingsAccount),
		Transfer:          TransferFromDomain(r.Transfer),
		FirstContribution: r.FirstContribution,
	}
}

// ContributionResponse reports a goal contribution.
type ContributionResponse struct {
	Goal     *GoalResponse     `json:"goal"`
	Transfer *TransferResponse `json:"transfer"`
}

// ReconciliationResponse reports an account replay.
type ReconciliationResponse struct {
	LastChecked       time.Time `json:"last_checked"`
	AccountID         string    `json:"account_id"`
	RecordedBalance   int64     `json:"recorded_balance"`
	CalculatedBalance int64     `json:"calculated_balance"`
	Difference        int64     `json:"difference"`
	LatestSnapshot    int64     `json:"latest_snapshot"`
	IsReconciled      bool      `json:"is_reconciled"`
}

// ReconciliationFromUseCase converts a ReconciliationResult to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		LastChecked:       r.LastChecked,
		AccountID:         r.AccountID,
		RecordedBalance:   int64(r.RecordedBalance),
		CalculatedBalance: int64(r.CalculatedBalance),
		Difference:        int64(r.Difference),
		LatestSnapshot:    int64(r.LatestSnapshot),
		IsReconciled:      r.IsReconciled,
	}
}

// ConsistencyResponse reports the ledger-wide check.
type ConsistencyResponse struct {
	CheckedAt           time.Time `json:"checked_at"`
	UnpairedTransfers   []string  `json:"unpaired_transfers"`
	TotalBalance        int64     `json:"total_balance"`
	TotalOpeningBalance int64     `json:"total_opening_balance"`
	AccountCount        int       `json:"account_count"`
	NegativeAccounts    int       `json:"negative_accounts"`
	Consistent          bool      `json:"consistent"`
}

// ConsistencyFromUseCase converts a ConsistencyReport to response.
func ConsistencyFromUseCase(r *usecase.ConsistencyReport) *ConsistencyResponse {
	unpaired := r.UnpairedTransfers
	if unpaired == nil {
		unpaired = []string{}
	}
	return &ConsistencyResponse{
		CheckedAt:           r.CheckedAt,
		UnpairedTransfers:   unpaired,
		TotalBalance:        r.TotalBalance,
		TotalOpeningBalance: r.TotalOpeningBalance,
		AccountCount:        r.AccountCount,
		NegativeAccounts:    r.NegativeAccounts,
		Consistent:          r.Consistent,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
