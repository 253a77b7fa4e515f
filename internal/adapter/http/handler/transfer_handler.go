package handler

import (
	"context"
	"net/http"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Execute(ctx context.Context, input usecase.TransferInput) (*domain.TransferResult, error)
}

// TransferHistoryService lists automated transfers out of the salary
// account.
type TransferHistoryService interface {
	TransferHistory(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	historyUC  TransferHistoryService
	accounts   accountGetter
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService, historyUC TransferHistoryService, accounts AccountService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, historyUC: historyUC, accounts: accounts}
}

// Create moves money between accounts now. The source account must belong
// to the caller.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := checkOwner(r.Context(), h.accounts, user, req.FromAccountID); err != nil {
		writeDomainError(w, "failed to create transfer", err)
		return
	}

	result, err := h.transferUC.Execute(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(result))
}

// History lists the caller's automated salary transfers, newest first.
func (h *TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	entries, err := h.historyUC.TransferHistory(r.Context(), user,
		parseIntQuery(r, "limit", 20),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeDomainError(w, "failed to list transfer history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

func checkOwner(ctx context.Context, accounts accountGetter, user, accountID string) error {
	account, err := accounts.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.OwnerUserID != user {
		return domain.ErrAccountNotOwned
	}
	return nil
}
