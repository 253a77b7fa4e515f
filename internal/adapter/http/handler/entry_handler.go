package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	GetEntriesByAccount(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.Entry, error)
	GetEntriesByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC  EntryService
	accounts accountGetter
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, accounts AccountService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, accounts: accounts}
}

// ListByAccount lists the log of one of the caller's accounts in commit
// order.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := ownedAccount(w, r, h.accounts)
	if !ok {
		return
	}

	entries, err := h.entryUC.GetEntriesByAccount(r.Context(), usecase.GetEntriesByAccountInput{
		AccountID: account.ID,
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// ListByTransfer lists the OUT/IN pair of a transfer.
func (h *EntryHandler) ListByTransfer(w http.ResponseWriter, r *http.Request) {
	transferID := chi.URLParam(r, "id")
	if transferID == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	entries, err := h.entryUC.GetEntriesByTransfer(r.Context(), transferID)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
