package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bufl/ledger/internal/adapter/http/middleware"
	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, id string) (*domain.Account, error)
	listFn   func(ctx context.Context, ownerUserID string) ([]*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ListAccountsByOwner(ctx context.Context, ownerUserID string) ([]*domain.Account, error) {
	return s.listFn(ctx, ownerUserID)
}

// ownedBy answers GetAccount with an account of owner for every id.
func ownedBy(owner string) *accountServiceStub {
	return &accountServiceStub{
		getFn: func(_ context.Context, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, OwnerUserID: owner, Number: "UA-" + id}, nil
		},
	}
}

type transferServiceStub struct {
	executeFn func(ctx context.Context, input usecase.TransferInput) (*domain.TransferResult, error)
	historyFn func(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error)
}

func (s *transferServiceStub) Execute(ctx context.Context, input usecase.TransferInput) (*domain.TransferResult, error) {
	return s.executeFn(ctx, input)
}

func (s *transferServiceStub) TransferHistory(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error) {
	return s.historyFn(ctx, userID, limit, offset)
}

type entryServiceStub struct {
	byAccountFn  func(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.Entry, error)
	byTransferFn func(ctx context.Context, transferID string) ([]*domain.Entry, error)
}

func (s *entryServiceStub) GetEntriesByAccount(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.Entry, error) {
	return s.byAccountFn(ctx, input)
}

func (s *entryServiceStub) GetEntriesByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	return s.byTransferFn(ctx, transferID)
}

type scheduleServiceStub struct {
	scheduleFn func(ctx context.Context, input usecase.ScheduleInput) (*domain.ScheduledTransfer, error)
	getFn      func(ctx context.Context, id string) (*domain.ScheduledTransfer, error)
	cancelFn   func(ctx context.Context, id string) (*domain.ScheduledTransfer, error)
}

func (s *scheduleServiceStub) Schedule(ctx context.Context, input usecase.ScheduleInput) (*domain.ScheduledTransfer, error) {
	return s.scheduleFn(ctx, input)
}

func (s *scheduleServiceStub) Get(ctx context.Context, id string) (*domain.ScheduledTransfer, error) {
	return s.getFn(ctx, id)
}

func (s *scheduleServiceStub) Cancel(ctx context.Context, id string) (*domain.ScheduledTransfer, error) {
	return s.cancelFn(ctx, id)
}

type allocationServiceStub struct {
	setSalaryFn     func(ctx context.Context, input usecase.SetSalaryInput) (*domain.Salary, []*domain.Category, error)
	setCategoriesFn func(ctx context.Context, userID string, inputs []usecase.CategoryInput) ([]*domain.Category, error)
	linkFn          func(ctx context.Context, userID, categoryID, accountID string) (*domain.Category, error)
	splitFn         func(ctx context.Context, userID string) ([]*domain.ScheduledTransfer, error)
}

func (s *allocationServiceStub) SetSalary(ctx context.Context, input usecase.SetSalaryInput) (*domain.Salary, []*domain.Category, error) {
	return s.setSalaryFn(ctx, input)
}

func (s *allocationServiceStub) SetCategories(ctx context.Context, userID string, inputs []usecase.CategoryInput) ([]*domain.Category, error) {
	return s.setCategoriesFn(ctx, userID, inputs)
}

func (s *allocationServiceStub) LinkCategoryAccount(ctx context.Context, userID, categoryID, accountID string) (*domain.Category, error) {
	return s.linkFn(ctx, userID, categoryID, accountID)
}

func (s *allocationServiceStub) SplitSalary(ctx context.Context, userID string) ([]*domain.ScheduledTransfer, error) {
	return s.splitFn(ctx, userID)
}

type goalServiceStub struct {
	createFn     func(ctx context.Context, input usecase.CreateGoalInput) (*usecase.CreateGoalResult, error)
	contributeFn func(ctx context.Context, goalID string, amount domain.Money) (*usecase.ContributionResult, error)
	scheduleFn   func(ctx context.Context, goalID string, fireAt time.Time) (*domain.ScheduledTransfer, error)
	progressFn   func(ctx context.Context, userID, goalID string) (*usecase.GoalProgress, error)
	listFn       func(ctx context.Context, userID string) ([]*domain.Goal, error)
	getFn        func(ctx context.Context, userID, goalID string) (*domain.Goal, error)
	entriesFn    func(ctx context.Context, userID, goalID string, limit, offset int) ([]*domain.Entry, error)
}

func (s *goalServiceStub) CreateGoal(ctx context.Context, input usecase.CreateGoalInput) (*usecase.CreateGoalResult, error) {
	return s.createFn(ctx, input)
}

func (s *goalServiceStub) ContributeToGoal(ctx context.Context, goalID string, amount domain.Money) (*usecase.ContributionResult, error) {
	return s.contributeFn(ctx, goalID, amount)
}

func (s *goalServiceStub) ScheduleGoalContribution(ctx context.Context, goalID string, fireAt time.Time) (*domain.ScheduledTransfer, error) {
	return s.scheduleFn(ctx, goalID, fireAt)
}

func (s *goalServiceStub) GoalProgress(ctx context.Context, userID, goalID string) (*usecase.GoalProgress, error) {
	return s.progressFn(ctx, userID, goalID)
}

func (s *goalServiceStub) ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	return s.listFn(ctx, userID)
}

func (s *goalServiceStub) GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	return s.getFn(ctx, userID, goalID)
}

func (s *goalServiceStub) GoalEntries(ctx context.Context, userID, goalID string, limit, offset int) ([]*domain.Entry, error) {
	return s.entriesFn(ctx, userID, goalID, limit, offset)
}

// newRequest builds a request authenticated as user with optional chi URL
// params given as key/value pairs.
func newRequest(t *testing.T, method, target, user string, body any, params ...string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if user != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), user))
	}

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
