package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/infrastructure/metrics"
)

// AllocationConfig tunes the allocation policy.
type AllocationConfig struct {
	SalarySplitDelay time.Duration
	ProgressTTL      time.Duration
}

// AllocationDeps wires the allocation policy.
type AllocationDeps struct {
	TxManager    TransactionManager
	AccountRepo  AccountRepository
	SalaryRepo   SalaryRepository
	CategoryRepo CategoryRepository
	GoalRepo     GoalRepository
	EntryRepo    EntryRepository
	OutboxRepo   OutboxRepository
	Engine       *TransferUseCase
	Scheduler    *SchedulerUseCase
	Cache        Cache
	IDGen        IDGenerator
	Retrier      Retrier
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// AllocationUseCase turns salary and goals into transfer intents.
type AllocationUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	salaryRepo   SalaryRepository
	categoryRepo CategoryRepository
	goalRepo     GoalRepository
	entryRepo    EntryRepository
	outboxRepo   OutboxRepository
	scheduler    *SchedulerUseCase
	goals        *goalLedger
	cache        Cache
	idGen        IDGenerator
	retrier      Retrier
	clock        Clock
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	cfg          AllocationConfig
}

// NewAllocationUseCase creates a new AllocationUseCase. Cache, Retrier and
// Metrics may be nil.
func NewAllocationUseCase(deps AllocationDeps, cfg AllocationConfig) *AllocationUseCase {
	if cfg.SalarySplitDelay <= 0 {
		cfg.SalarySplitDelay = DefaultSalarySplitDelay
	}
	if cfg.ProgressTTL <= 0 {
		cfg.ProgressTTL = DefaultGoalProgressTTL
	}
	if deps.Retrier == nil {
		deps.Retrier = directRetrier{}
	}

	return &AllocationUseCase{
		txManager:    deps.TxManager,
		accountRepo:  deps.AccountRepo,
		salaryRepo:   deps.SalaryRepo,
		categoryRepo: deps.CategoryRepo,
		goalRepo:     deps.GoalRepo,
		entryRepo:    deps.EntryRepo,
		outboxRepo:   deps.OutboxRepo,
		scheduler:    deps.Scheduler,
		goals: &goalLedger{
			goalRepo:   deps.GoalRepo,
			outboxRepo: deps.OutboxRepo,
			engine:     deps.Engine,
			idGen:      deps.IDGen,
		},
		cache:   deps.Cache,
		idGen:   deps.IDGen,
		retrier: deps.Retrier,
		clock:   SystemClock(),
		metrics: deps.Metrics,
		logger:  deps.Logger.With().Str("component", "allocation").Logger(),
		cfg:     cfg,
	}
}

// WithClock replaces the clock used for split times and goal progress.
func (uc *AllocationUseCase) WithClock(clock Clock) *AllocationUseCase {
	uc.clock = clock
	return uc
}

// SetSalaryInput represents input for defining a salary.
type SetSalaryInput struct {
	UserID    string
	AccountID string
	Amount    domain.Money
	PayDay    int
}

// SetSalary stores the user's salary and recomputes every category amount.
func (uc *AllocationUseCase) SetSalary(ctx context.Context, input SetSalaryInput) (*domain.Salary, []*domain.Category, error) {
	now := uc.clock.Now()
	salary := &domain.Salary{
		UserID:    input.UserID,
		AccountID: input.AccountID,
		Amount:    input.Amount,
		PayDay:    input.PayDay,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := salary.Validate(); err != nil {
		return nil, nil, err
	}

	if _, err := uc.ownedAccount(ctx, input.UserID, input.AccountID); err != nil {
		return nil, nil, err
	}

	categories, err := uc.categoryRepo.ListByUser(ctx, input.UserID)
	if err != nil {
		return nil, nil, err
	}

	for _, c := range categories {
		c.Recompute(salary.Amount)
		c.UpdatedAt = now
	}

	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.salaryRepo.Upsert(ctx, tx, salary); err != nil {
			return err
		}

		return uc.categoryRepo.UpdateComputedAmounts(ctx, tx, categories)
	})
	if err != nil {
		return nil, nil, err
	}

	return salary, categories, nil
}

// CategoryInput is one entry of a category set.
type CategoryInput struct {
	LinkedAccountID *string
	Name            string
	Role            domain.CategoryRole
	Ratio           int
}

// SetCategories replaces the user's category set.
func (uc *AllocationUseCase) SetCategories(ctx context.Context, userID string, inputs []CategoryInput) ([]*domain.Category, error) {
	now := uc.clock.Now()

	categories := make([]*domain.Category, 0, len(inputs))
	for _, in := range inputs {
		role := in.Role
		if role == "" {
			role = domain.CategoryRoleSpending
		}

		categories = append(categories, &domain.Category{
			ID:              uc.idGen.Generate(),
			UserID:          userID,
			Name:            in.Name,
			Ratio:           in.Ratio,
			Role:            role,
			LinkedAccountID: in.LinkedAccountID,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if err := domain.ValidateCategorySet(categories); err != nil {
		return nil, err
	}

	for _, c := range categories {
		if c.LinkedAccountID == nil {
			continue
		}
		if _, err := uc.ownedAccount(ctx, userID, *c.LinkedAccountID); err != nil {
			return nil, err
		}
	}

	salary, err := uc.salaryRepo.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrSalaryNotFound) {
		return nil, err
	}

	if salary != nil {
		for _, c := range categories {
			c.Recompute(salary.Amount)
		}
	}

	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		return uc.categoryRepo.ReplaceForUser(ctx, tx, userID, categories)
	})
	if err != nil {
		return nil, err
	}

	return categories, nil
}

// LinkCategoryAccount points a category at the account that receives its
// share.
func (uc *AllocationUseCase) LinkCategoryAccount(ctx context.Context, userID, categoryID, accountID string) (*domain.Category, error) {
	category, err := uc.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if category.UserID != userID {
		return nil, domain.ErrCategoryNotFound
	}

	if _, err := uc.ownedAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if err := uc.categoryRepo.LinkAccount(ctx, categoryID, accountID, now); err != nil {
		return nil, err
	}

	category.LinkedAccountID = &accountID
	category.UpdatedAt = now

	return category, nil
}

// SplitSalary schedules one transfer per spending category from the salary
// account, each at now+SalarySplitDelay. The whole plan is validated before
// anything is persisted and all schedules commit together.
func (uc *AllocationUseCase) SplitSalary(ctx context.Context, userID string) ([]*domain.ScheduledTransfer, error) {
	salary, err := uc.salaryRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	categories, err := uc.categoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fireAt := uc.clock.Now().Add(uc.cfg.SalarySplitDelay)

	var plan []ScheduleInput
	for _, c := range categories {
		if c.IsPayroll() {
			continue
		}

		amount := domain.AllocateSalary(salary.Amount, c.Ratio)
		if !amount.IsPositive() {
			continue
		}

		if c.LinkedAccountID == nil {
			return nil, domain.ErrCategoryNotLinked
		}

		if *c.LinkedAccountID == salary.AccountID {
			return nil, domain.ErrSameAccount
		}

		plan = append(plan, ScheduleInput{
			FireAt: fireAt,
			TransferIntent: domain.TransferIntent{
				FromAccountID: salary.AccountID,
				ToAccountID:   *c.LinkedAccountID,
				Description:   domain.DescriptionAutoTransfer,
				Amount:        amount,
			},
		})
	}

	scheduled := make([]*domain.ScheduledTransfer, 0, len(plan))

	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		scheduled = scheduled[:0]
		for _, in := range plan {
			st, err := uc.scheduler.ScheduleTx(ctx, tx, in)
			if err != nil {
				return err
			}
			scheduled = append(scheduled, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, st := range scheduled {
		uc.scheduler.Arm(st)
	}

	uc.logger.Info().
		Str("user_id", userID).
		Int("transfers", len(scheduled)).
		Time("fire_at", fireAt).
		Msg("salary split scheduled")

	return scheduled, nil
}

// TransferHistory lists automated transfers out of the salary account, newest
// first.
func (uc *AllocationUseCase) TransferHistory(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error) {
	salary, err := uc.salaryRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.entryRepo.ListOutgoing(ctx, salary.AccountID, domain.DescriptionAutoTransfer, limit, offset)
}

// CreateGoalInput represents input for creating a savings goal.
type CreateGoalInput struct {
	UserID              string
	AccountID           string
	MonthlyContribution domain.Money
	DurationMonths      int
}

// CreateGoalResult reports the new goal and whether its first contribution
// went through.
type CreateGoalResult struct {
	Goal              *domain.Goal
	SavingsAccount    *domain.Account
	Transfer          *domain.TransferResult
	FirstContribution bool
}

// CreateGoal opens a goal with a dedicated savings account and attempts the
// first monthly contribution. A business failure on that contribution keeps
// the goal; storage failures are returned.
func (uc *AllocationUseCase) CreateGoal(ctx context.Context, input CreateGoalInput) (*CreateGoalResult, error) {
	if _, err := uc.ownedAccount(ctx, input.UserID, input.AccountID); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	target := domain.GoalTarget(input.MonthlyContribution, input.DurationMonths)

	goal := &domain.Goal{
		ID:                  uc.idGen.Generate(),
		UserID:              input.UserID,
		AccountID:           input.AccountID,
		Name:                domain.GoalName(target),
		TargetAmount:        target,
		MonthlyContribution: input.MonthlyContribution,
		StartTime:           now,
		DurationMonths:      input.DurationMonths,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := goal.Validate(); err != nil {
		return nil, err
	}

	savings := &domain.Account{
		ID:          uc.idGen.Generate(),
		OwnerUserID: input.UserID,
		Number:      "GOAL-" + goal.ID,
		BankName:    goal.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	goal.SavingsAccountID = savings.ID

	if err := savings.Validate(); err != nil {
		return nil, err
	}

	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.CreateTx(ctx, tx, savings); err != nil {
			return err
		}

		if err := uc.outboxRepo.Create(ctx, tx, domain.NewAccountCreatedEvent(uc.idGen.Generate(), savings)); err != nil {
			return err
		}

		return uc.goalRepo.Create(ctx, tx, goal)
	})
	if err != nil {
		return nil, err
	}

	result := &CreateGoalResult{Goal: goal, SavingsAccount: savings}

	contribution, err := uc.ContributeToGoal(ctx, goal.ID, goal.NextContribution())
	switch {
	case err == nil:
		result.Goal = contribution.Goal
		result.Transfer = contribution.Transfer
		result.FirstContribution = true
	case domain.IsBusinessError(err):
		uc.logger.Info().
			Err(err).
			Str("goal_id", goal.ID).
			Msg("first goal contribution skipped")
	default:
		return nil, err
	}

	return result, nil
}

// ContributionResult is the outcome of a goal contribution.
type ContributionResult struct {
	Goal     *domain.Goal
	Transfer *domain.TransferResult
}

// ContributeToGoal moves amount into the goal's savings account and raises
// currentAmount in the same transaction.
func (uc *AllocationUseCase) ContributeToGoal(ctx context.Context, goalID string, amount domain.Money) (*ContributionResult, error) {
	started := time.Now()

	var result ContributionResult

	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		goal, transfer, err := uc.goals.contribute(ctx, tx, goalID, amount)
		if err != nil {
			return err
		}

		result = ContributionResult{Goal: goal, Transfer: transfer}

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.goals.engine.Committed(result.Transfer, started)

	if uc.metrics != nil {
		uc.metrics.GoalContributions.Inc()
	}

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, goalProgressKey(result.Goal.UserID, result.Goal.ID)); err != nil {
			uc.logger.Warn().Err(err).Str("goal_id", goalID).Msg("failed to drop cached goal progress")
		}
	}

	return &result, nil
}

// ScheduleGoalContribution schedules the next monthly contribution, capped at
// what remains of the target.
func (uc *AllocationUseCase) ScheduleGoalContribution(ctx context.Context, goalID string, fireAt time.Time) (*domain.ScheduledTransfer, error) {
	goal, err := uc.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	amount := goal.NextContribution()
	if !amount.IsPositive() {
		return nil, domain.ErrGoalCompleted
	}

	return uc.scheduler.Schedule(ctx, ScheduleInput{
		FireAt: fireAt,
		GoalID: &goal.ID,
		TransferIntent: domain.TransferIntent{
			FromAccountID: goal.AccountID,
			ToAccountID:   goal.SavingsAccountID,
			Description:   domain.DescriptionGoalSaving,
			Amount:        amount,
		},
	})
}

// GoalProgress summarises how close a goal is to completion.
type GoalProgress struct {
	EndTime       time.Time       `json:"end_time"`
	ComputedAt    time.Time       `json:"computed_at"`
	GoalID        string          `json:"goal_id"`
	Name          string          `json:"name"`
	Probability   decimal.Decimal `json:"probability"`
	CurrentAmount domain.Money    `json:"current_amount"`
	TargetAmount  domain.Money    `json:"target_amount"`
	Terminal      bool            `json:"terminal"`
}

// GoalProgress returns the completion probability of a user's goal, served
// from the per-user cache while it is fresh.
func (uc *AllocationUseCase) GoalProgress(ctx context.Context, userID, goalID string) (*GoalProgress, error) {
	key := goalProgressKey(userID, goalID)

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, key); err == nil {
			var progress GoalProgress
			if err := json.Unmarshal(cached, &progress); err == nil {
				uc.cacheResult("hit")
				return &progress, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Str("goal_id", goalID).Msg("goal progress cache unavailable")
		}
		uc.cacheResult("miss")
	}

	goal, err := uc.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if goal.UserID != userID {
		return nil, domain.ErrGoalNotFound
	}

	now := uc.clock.Now()
	progress := &GoalProgress{
		GoalID:        goal.ID,
		Name:          goal.Name,
		CurrentAmount: goal.CurrentAmount,
		TargetAmount:  goal.TargetAmount,
		Probability:   goal.CompletionProbability(now),
		Terminal:      goal.IsTerminal(now),
		EndTime:       goal.EndTime(),
		ComputedAt:    now,
	}

	if uc.cache != nil {
		if data, err := json.Marshal(progress); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cfg.ProgressTTL); err != nil {
				uc.logger.Warn().Err(err).Str("goal_id", goalID).Msg("failed to cache goal progress")
			}
		}
	}

	return progress, nil
}

// GetGoal returns a user's goal. Goals of other users are reported as not
// found.
func (uc *AllocationUseCase) GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	goal, err := uc.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if goal.UserID != userID {
		return nil, domain.ErrGoalNotFound
	}

	return goal, nil
}

// GoalEntries lists the entries written by contributions to a user's goal in
// commit order.
func (uc *AllocationUseCase) GoalEntries(ctx context.Context, userID, goalID string, limit, offset int) ([]*domain.Entry, error) {
	if _, err := uc.GetGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.entryRepo.ListByGoal(ctx, goalID, limit, offset)
}

// ListGoals lists a user's goals.
func (uc *AllocationUseCase) ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	return uc.goalRepo.ListByUser(ctx, userID)
}

func (uc *AllocationUseCase) ownedAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.OwnerUserID != userID {
		return nil, domain.ErrAccountNotOwned
	}

	return account, nil
}

func (uc *AllocationUseCase) cacheResult(result string) {
	if uc.metrics != nil {
		uc.metrics.GoalProgressCache.WithLabelValues(result).Inc()
	}
}

// inTx runs fn in a retried transaction and commits it.
func (uc *AllocationUseCase) inTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	err := uc.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})

	return StorageError(err)
}
