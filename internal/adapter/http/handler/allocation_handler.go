package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// AllocationService defines the salary split behavior needed by
// AllocationHandler.
type AllocationService interface {
	SetSalary(ctx context.Context, input usecase.SetSalaryInput) (*domain.Salary, []*domain.Category, error)
	SetCategories(ctx context.Context, userID string, inputs []usecase.CategoryInput) ([]*domain.Category, error)
	LinkCategoryAccount(ctx context.Context, userID, categoryID, accountID string) (*domain.Category, error)
	SplitSalary(ctx context.Context, userID string) ([]*domain.ScheduledTransfer, error)
}

// AllocationHandler handles salary and category HTTP requests.
type AllocationHandler struct {
	allocationUC AllocationService
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(allocationUC AllocationService) *AllocationHandler {
	return &AllocationHandler{allocationUC: allocationUC}
}

// SetSalary records the caller's salary and returns the recomputed
// category amounts.
func (h *AllocationHandler) SetSalary(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.SetSalaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	salary, categories, err := h.allocationUC.SetSalary(r.Context(), req.ToUseCaseInput(user))
	if err != nil {
		writeDomainError(w, "failed to set salary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SalaryResponse{
		AccountID:  salary.AccountID,
		Categories: dto.CategoriesFromDomain(categories),
		Amount:     int64(salary.Amount),
		PayDay:     salary.PayDay,
	})
}

// SetCategories replaces the caller's category set.
func (h *AllocationHandler) SetCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.SetCategoriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	categories, err := h.allocationUC.SetCategories(r.Context(), user, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to set categories", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoriesFromDomain(categories))
}

// LinkAccount links a category to one of the caller's accounts.
func (h *AllocationHandler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.LinkCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.allocationUC.LinkCategoryAccount(r.Context(), user, chi.URLParam(r, "id"), req.AccountID)
	if err != nil {
		writeDomainError(w, "failed to link category", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoriesFromDomain([]*domain.Category{category})[0])
}

// SplitSalary schedules one transfer per linked category.
func (h *AllocationHandler) SplitSalary(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	schedules, err := h.allocationUC.SplitSalary(r.Context(), user)
	if err != nil {
		writeDomainError(w, "failed to split salary", err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.SchedulesFromDomain(schedules))
}
