package handler

import (
	"context"
	"net/http"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// ReconciliationService replays a single account's log.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// LedgerHandler handles ledger-wide HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
	reconUC  ReconciliationService
	accounts accountGetter
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconUC ReconciliationService, accounts AccountService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconUC: reconUC, accounts: accounts}
}

// Consistency reports whether money is conserved across the ledger.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeDomainError(w, "failed to check consistency", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromUseCase(report))
}

// Reconcile replays one of the caller's accounts and compares it with the
// stored balance.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	account, ok := ownedAccount(w, r, h.accounts)
	if !ok {
		return
	}

	result, err := h.reconUC.ReconcileAccount(r.Context(), account.ID)
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}
