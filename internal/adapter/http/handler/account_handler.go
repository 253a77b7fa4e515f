package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerUserID string) ([]*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account for the caller.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput(user))
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves one of the caller's accounts.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := ownedAccount(w, r, h.accountUC)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccountsByOwner(r.Context(), user)
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

type accountGetter interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

// ownedAccount loads the {id} account and checks it belongs to the caller.
func ownedAccount(w http.ResponseWriter, r *http.Request, accounts accountGetter) (*domain.Account, bool) {
	user, ok := userID(w, r)
	if !ok {
		return nil, false
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return nil, false
	}

	account, err := accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return nil, false
	}

	if account.OwnerUserID != user {
		writeDomainError(w, "failed to get account", domain.ErrAccountNotOwned)
		return nil, false
	}

	return account, true
}
