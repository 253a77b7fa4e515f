package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotOwned   = errors.New("account does not belong to user")
	ErrDuplicateAccount  = errors.New("account number already exists")
	ErrBalanceOverflow   = errors.New("credit would overflow account balance")

	// Transfer errors
	ErrSameAccount    = errors.New("cannot transfer to same account")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrStorageFailure = errors.New("storage failure")

	// Goal errors
	ErrGoalNotFound  = errors.New("goal not found")
	ErrExceedsTarget = errors.New("contribution exceeds goal target")
	ErrGoalCompleted = errors.New("goal is already completed")
	ErrInvalidGoal   = errors.New("invalid goal")

	// Category and salary errors
	ErrCategoryNotFound    = errors.New("category not found")
	ErrInvalidCategoryRole = errors.New("unknown category role")
	ErrCategoryNotLinked   = errors.New("category has no linked account")
	ErrInvalidRatio        = errors.New("ratio must be between 0 and 100")
	ErrInvalidRatioSum     = errors.New("category ratios must sum to 100")
	ErrPayrollCategory     = errors.New("exactly one payroll category is required")
	ErrSalaryNotFound      = errors.New("salary not found")
	ErrInvalidSalary       = errors.New("invalid salary")

	// Schedule errors
	ErrScheduleNotFound   = errors.New("scheduled transfer not found")
	ErrScheduleNotPending = errors.New("scheduled transfer is not pending")
	ErrSchedulingLost     = errors.New("scheduled transfer was lost before it could fire")
)

var businessErrors = []error{
	ErrAccountNotFound,
	ErrInsufficientFunds,
	ErrAccountNotOwned,
	ErrDuplicateAccount,
	ErrBalanceOverflow,
	ErrSameAccount,
	ErrInvalidAmount,
	ErrGoalNotFound,
	ErrExceedsTarget,
	ErrGoalCompleted,
	ErrInvalidGoal,
	ErrCategoryNotFound,
	ErrInvalidCategoryRole,
	ErrCategoryNotLinked,
	ErrInvalidRatio,
	ErrInvalidRatioSum,
	ErrPayrollCategory,
	ErrSalaryNotFound,
	ErrInvalidSalary,
	ErrScheduleNotFound,
	ErrScheduleNotPending,
	ErrInvalidAccountNumber,
	ErrInvalidDescription,
	ErrInvalidName,
}

// IsBusinessError reports whether err is a rule violation that retrying
// cannot fix. Anything else is treated as a storage failure.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
