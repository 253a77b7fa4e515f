package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// GoalService defines the behavior needed by GoalHandler.
type GoalService interface {
	CreateGoal(ctx context.Context, input usecase.CreateGoalInput) (*usecase.CreateGoalResult, error)
	ContributeToGoal(ctx context.Context, goalID string, amount domain.Money) (*usecase.ContributionResult, error)
	ScheduleGoalContribution(ctx context.Context, goalID string, fireAt time.Time) (*domain.ScheduledTransfer, error)
	GoalProgress(ctx context.Context, userID, goalID string) (*usecase.GoalProgress, error)
	GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error)
	GoalEntries(ctx context.Context, userID, goalID string, limit, offset int) ([]*domain.Entry, error)
	ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error)
}

// GoalHandler handles savings goal HTTP requests.
type GoalHandler struct {
	goalUC GoalService
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalUC GoalService) *GoalHandler {
	return &GoalHandler{goalUC: goalUC}
}

// Create opens a goal with its savings account and attempts the first
// contribution.
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.CreateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.goalUC.CreateGoal(r.Context(), req.ToUseCaseInput(user))
	if err != nil {
		writeDomainError(w, "failed to create goal", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CreateGoalFromUseCase(result))
}

// List lists the caller's goals.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	goals, err := h.goalUC.ListGoals(r.Context(), user)
	if err != nil {
		writeDomainError(w, "failed to list goals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GoalsFromDomain(goals))
}

// Get returns one of the caller's goals.
func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	goal, err := h.goalUC.GetGoal(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get goal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GoalFromDomain(goal))
}

// Entries lists the ledger entries written by a goal's contributions.
func (h *GoalHandler) Entries(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	entries, err := h.goalUC.GoalEntries(r.Context(), user, chi.URLParam(r, "id"),
		parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list goal entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Progress returns the completion probability of a goal.
func (h *GoalHandler) Progress(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	progress, err := h.goalUC.GoalProgress(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get goal progress", err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// Contribute moves money into the goal's savings account now.
func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	goalID, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}

	var req dto.ContributeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.goalUC.ContributeToGoal(r.Context(), goalID, domain.Money(req.Amount))
	if err != nil {
		writeDomainError(w, "failed to contribute to goal", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ContributionResponse{
		Goal:     dto.GoalFromDomain(result.Goal),
		Transfer: dto.TransferFromDomain(result.Transfer),
	})
}

// ScheduleContribution schedules the next monthly contribution.
func (h *GoalHandler) ScheduleContribution(w http.ResponseWriter, r *http.Request) {
	goalID, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}

	var req dto.ScheduleContributionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.FireAt.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid request body", "fire_at is required")
		return
	}

	st, err := h.goalUC.ScheduleGoalContribution(r.Context(), goalID, req.FireAt)
	if err != nil {
		writeDomainError(w, "failed to schedule contribution", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ScheduleFromDomain(st))
}

// ownedGoal resolves the {id} goal, answering 404 when the caller does not
// own it.
func (h *GoalHandler) ownedGoal(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := userID(w, r)
	if !ok {
		return "", false
	}

	goalID := chi.URLParam(r, "id")
	if _, err := h.goalUC.GetGoal(r.Context(), user, goalID); err != nil {
		writeDomainError(w, "failed to get goal", err)
		return "", false
	}

	return goalID, true
}
