package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// ScheduleService defines the behavior needed by ScheduleHandler.
type ScheduleService interface {
	Schedule(ctx context.Context, input usecase.ScheduleInput) (*domain.ScheduledTransfer, error)
	Get(ctx context.Context, id string) (*domain.ScheduledTransfer, error)
	Cancel(ctx context.Context, id string) (*domain.ScheduledTransfer, error)
}

// ScheduleHandler handles scheduled transfer HTTP requests.
type ScheduleHandler struct {
	scheduler ScheduleService
	accounts  accountGetter
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduler ScheduleService, accounts AccountService) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, accounts: accounts}
}

// Create schedules a transfer out of one of the caller's accounts.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.CreateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.FireAt.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid request body", "fire_at is required")
		return
	}

	if err := checkOwner(r.Context(), h.accounts, user, req.FromAccountID); err != nil {
		writeDomainError(w, "failed to schedule transfer", err)
		return
	}

	st, err := h.scheduler.Schedule(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to schedule transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ScheduleFromDomain(st))
}

// Get returns a scheduled transfer and its status.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, ok := h.owned(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleFromDomain(st))
}

// Cancel cancels a PENDING scheduled transfer.
func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.owned(w, r); !ok {
		return
	}

	st, err := h.scheduler.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to cancel scheduled transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleFromDomain(st))
}

func (h *ScheduleHandler) owned(w http.ResponseWriter, r *http.Request) (*domain.ScheduledTransfer, bool) {
	user, ok := userID(w, r)
	if !ok {
		return nil, false
	}

	st, err := h.scheduler.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get scheduled transfer", err)
		return nil, false
	}

	if err := checkOwner(r.Context(), h.accounts, user, st.FromAccountID); err != nil {
		writeDomainError(w, "failed to get scheduled transfer", err)
		return nil, false
	}

	return st, true
}
