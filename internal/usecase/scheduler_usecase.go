package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/infrastructure/metrics"
)

// SchedulerConfig tunes the durable scheduler.
type SchedulerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxLateness marks overdue PENDING transfers LOST instead of firing
	// them. Zero fires every overdue transfer.
	MaxLateness time.Duration
}

// SchedulerUseCase fires deferred transfers exactly once. Every transfer is
// persisted before it is armed; in-process timers are only a latency
// optimisation over the polling sweep.
type SchedulerUseCase struct {
	txManager    TransactionManager
	scheduleRepo ScheduledTransferRepository
	outboxRepo   OutboxRepository
	engine       *TransferUseCase
	goals        *goalLedger
	cache        Cache
	idGen        IDGenerator
	retrier      Retrier
	clock        Clock
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	cfg          SchedulerConfig

	mu      sync.Mutex
	timers  map[string]Timer
	baseCtx context.Context
}

// NewSchedulerUseCase creates a new SchedulerUseCase.
func NewSchedulerUseCase(
	txManager TransactionManager,
	scheduleRepo ScheduledTransferRepository,
	goalRepo GoalRepository,
	outboxRepo OutboxRepository,
	engine *TransferUseCase,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cfg SchedulerConfig,
) *SchedulerUseCase {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if retrier == nil {
		retrier = directRetrier{}
	}

	return &SchedulerUseCase{
		txManager:    txManager,
		scheduleRepo: scheduleRepo,
		outboxRepo:   outboxRepo,
		engine:       engine,
		goals: &goalLedger{
			goalRepo:   goalRepo,
			outboxRepo: outboxRepo,
			engine:     engine,
			idGen:      idGen,
		},
		idGen:   idGen,
		retrier: retrier,
		clock:   SystemClock(),
		metrics: m,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		cfg:     cfg,
		timers:  make(map[string]Timer),
		baseCtx: context.Background(),
	}
}

// WithClock replaces the clock used for fire times and timers.
func (s *SchedulerUseCase) WithClock(clock Clock) *SchedulerUseCase {
	s.clock = clock
	return s
}

// WithCache lets the scheduler drop cached goal progress after a scheduled
// contribution commits.
func (s *SchedulerUseCase) WithCache(cache Cache) *SchedulerUseCase {
	s.cache = cache
	return s
}

// ScheduleInput describes a deferred transfer.
type ScheduleInput struct {
	FireAt time.Time
	GoalID *string
	domain.TransferIntent
}

// Schedule persists a PENDING transfer and arms its timer.
func (s *SchedulerUseCase) Schedule(ctx context.Context, input ScheduleInput) (*domain.ScheduledTransfer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := s.txManager.Begin(txCtx)
	if err != nil {
		return nil, StorageError(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	st, err := s.ScheduleTx(txCtx, tx, input)
	if err != nil {
		return nil, StorageError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, StorageError(err)
	}

	s.Arm(st)

	return st, nil
}

// ScheduleTx persists a PENDING transfer inside a caller-owned transaction.
// Call Arm after the transaction commits.
func (s *SchedulerUseCase) ScheduleTx(ctx context.Context, tx Transaction, input ScheduleInput) (*domain.ScheduledTransfer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	st := &domain.ScheduledTransfer{
		ID:            s.idGen.Generate(),
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Description:   input.Description,
		GoalID:        input.GoalID,
		FireAt:        input.FireAt.UTC(),
		Status:        domain.ScheduleStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.scheduleRepo.Create(ctx, tx, st); err != nil {
		return nil, err
	}

	event := domain.NewScheduleEvent(s.idGen.Generate(), domain.EventTypeScheduleCreated, st, now)
	if err := s.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SchedulesCreated.Inc()
	}

	return st, nil
}

// Get returns a scheduled transfer.
func (s *SchedulerUseCase) Get(ctx context.Context, id string) (*domain.ScheduledTransfer, error) {
	return s.scheduleRepo.GetByID(ctx, id)
}

// Status returns the lifecycle state of a scheduled transfer.
func (s *SchedulerUseCase) Status(ctx context.Context, id string) (domain.ScheduleStatus, error) {
	st, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	return st.Status, nil
}

// Cancel moves a PENDING transfer to CANCELLED and disarms it.
func (s *SchedulerUseCase) Cancel(ctx context.Context, id string) (*domain.ScheduledTransfer, error) {
	st, err := s.transition(ctx, id, domain.ScheduleStatusCancelled, domain.EventTypeScheduleCancelled, "")
	if err != nil {
		return nil, StorageError(err)
	}

	if st == nil {
		// Either already terminal or held by a worker firing it right now.
		if _, err := s.scheduleRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}

		return nil, domain.ErrScheduleNotPending
	}

	s.disarm(id)
	s.logger.Info().Str("schedule_id", id).Msg("scheduled transfer cancelled")

	return st, nil
}

// Fire executes a due transfer. It returns nil when the row is no longer
// PENDING or another worker holds it, so duplicate timer callbacks are
// harmless. Business failures are recorded as FAILED and returned as a
// FAILED row with a nil error. Storage failures leave the row PENDING.
func (s *SchedulerUseCase) Fire(ctx context.Context, id string) (*domain.ScheduledTransfer, error) {
	started := time.Now()

	var (
		st     *domain.ScheduledTransfer
		result *domain.TransferResult
		goal   *domain.Goal
		bizErr error
	)

	err := s.retrier.Retry(ctx, func() error {
		var err error

		st, result, goal, err = s.execute(ctx, id)
		if err != nil && domain.IsBusinessError(err) {
			bizErr = err
			return nil
		}

		bizErr = nil

		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule_id", id).Msg("scheduled transfer left pending after storage error")
		return nil, StorageError(err)
	}

	if bizErr != nil {
		return s.fail(ctx, id, bizErr)
	}

	if st == nil {
		return nil, nil
	}

	s.finished(st)

	if st.Status != domain.ScheduleStatusExecuted {
		return st, nil
	}

	s.engine.Committed(result, started)

	if goal != nil {
		if s.metrics != nil {
			s.metrics.GoalContributions.Inc()
		}
		s.invalidateProgress(ctx, goal)
	}

	s.logger.Info().
		Str("schedule_id", st.ID).
		Str("transfer_id", result.TransferID).
		Int64("amount", int64(st.Amount)).
		Msg("scheduled transfer executed")

	return st, nil
}

func (s *SchedulerUseCase) execute(ctx context.Context, id string) (*domain.ScheduledTransfer, *domain.TransferResult, *domain.Goal, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := s.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	st, err := s.scheduleRepo.ClaimPending(txCtx, tx, id)
	if err != nil || st == nil {
		return nil, nil, nil, err
	}

	now := s.clock.Now()

	if s.cfg.MaxLateness > 0 && st.Lateness(now) > s.cfg.MaxLateness {
		st.FailureReason = domain.ErrSchedulingLost.Error()
		if err := s.commitTransition(txCtx, tx, st, domain.ScheduleStatusLost, domain.EventTypeScheduleLost, now); err != nil {
			return nil, nil, nil, err
		}

		s.logger.Warn().
			Str("schedule_id", st.ID).
			Dur("lateness", st.Lateness(now)).
			Msg("scheduled transfer lost")

		return st, nil, nil, nil
	}

	var (
		result *domain.TransferResult
		goal   *domain.Goal
	)

	if st.GoalID != nil {
		goal, result, err = s.goals.contribute(txCtx, tx, *st.GoalID, st.Amount)
	} else {
		result, err = s.engine.ExecuteTx(txCtx, tx, TransferInput{TransferIntent: st.Intent()})
	}
	if err != nil {
		return nil, nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.ScheduleLateness.Observe(st.Lateness(now).Seconds())
	}

	st.TransferID = &result.TransferID
	if err := s.commitTransition(txCtx, tx, st, domain.ScheduleStatusExecuted, domain.EventTypeScheduleExecuted, now); err != nil {
		return nil, nil, nil, err
	}

	return st, result, goal, nil
}

// fail records a business failure in a fresh transaction; the one that ran
// the transfer has already rolled back.
func (s *SchedulerUseCase) fail(ctx context.Context, id string, cause error) (*domain.ScheduledTransfer, error) {
	st, err := s.transition(ctx, id, domain.ScheduleStatusFailed, domain.EventTypeScheduleFailed, cause.Error())
	if err != nil {
		s.logger.Error().Err(err).Str("schedule_id", id).Msg("failed to record scheduled transfer failure")
		return nil, StorageError(err)
	}

	if st == nil {
		return nil, nil
	}

	s.finished(st)
	s.logger.Warn().
		Str("schedule_id", id).
		Str("reason", st.FailureReason).
		Msg("scheduled transfer failed")

	return st, nil
}

// transition claims a PENDING row and moves it to status in its own
// transaction. It returns nil when there was nothing to claim.
func (s *SchedulerUseCase) transition(ctx context.Context, id string, to domain.ScheduleStatus, eventType, reason string) (*domain.ScheduledTransfer, error) {
	var st *domain.ScheduledTransfer

	err := s.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := s.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		claimed, err := s.scheduleRepo.ClaimPending(txCtx, tx, id)
		if err != nil {
			return err
		}

		if claimed == nil {
			st = nil
			return nil
		}

		claimed.FailureReason = reason
		if err := s.commitTransition(txCtx, tx, claimed, to, eventType, s.clock.Now()); err != nil {
			return err
		}

		st = claimed

		return nil
	})

	return st, err
}

func (s *SchedulerUseCase) commitTransition(
	ctx context.Context,
	tx Transaction,
	st *domain.ScheduledTransfer,
	to domain.ScheduleStatus,
	eventType string,
	now time.Time,
) error {
	if err := st.Transition(to, now); err != nil {
		return err
	}

	if err := s.scheduleRepo.UpdateStatus(ctx, tx, st); err != nil {
		return err
	}

	if err := s.outboxRepo.Create(ctx, tx, domain.NewScheduleEvent(s.idGen.Generate(), eventType, st, now)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Recover re-arms every PENDING transfer after a restart. Overdue transfers
// fire immediately; Fire marks them LOST when they exceed MaxLateness.
func (s *SchedulerUseCase) Recover(ctx context.Context) (int, error) {
	pending, err := s.scheduleRepo.ListPending(ctx)
	if err != nil {
		return 0, StorageError(err)
	}

	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	for _, st := range pending {
		s.Arm(st)
	}

	s.logger.Info().Int("pending", len(pending)).Msg("scheduler recovered pending transfers")

	return len(pending), nil
}

// Run sweeps for due transfers every PollInterval until ctx is cancelled.
// The sweep covers timers lost to crashes and work armed by other
// instances.
func (s *SchedulerUseCase) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.logger.Info().
		Dur("interval", s.cfg.PollInterval).
		Int("batch_size", s.cfg.BatchSize).
		Msg("scheduler started")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error().Err(err).Msg("error sweeping scheduled transfers on start")
	}

	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			s.logger.Info().Msg("scheduler shutting down")

			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("error sweeping scheduled transfers")
			}
		}
	}
}

// Sweep fires one batch of due PENDING transfers and reports how many left
// PENDING.
func (s *SchedulerUseCase) Sweep(ctx context.Context) (int, error) {
	due, err := s.scheduleRepo.ListDue(ctx, s.clock.Now(), s.cfg.BatchSize)
	if err != nil {
		return 0, StorageError(err)
	}

	fired := 0

	for _, st := range due {
		res, err := s.Fire(ctx, st.ID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return fired, err
			}
			continue
		}

		if res != nil {
			s.disarm(st.ID)
			fired++
		}
	}

	return fired, nil
}

// Arm starts an in-process timer for a PENDING transfer. Arming twice is a
// no-op.
func (s *SchedulerUseCase) Arm(st *domain.ScheduledTransfer) {
	if st.Status != domain.ScheduleStatusPending {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timers[st.ID]; ok {
		return
	}

	delay := st.FireAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	id := st.ID
	s.timers[id] = s.clock.AfterFunc(delay, func() { s.onTimer(id) })

	if s.metrics != nil {
		s.metrics.SchedulesArmed.Inc()
	}
}

// Armed reports how many timers are waiting.
func (s *SchedulerUseCase) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}

func (s *SchedulerUseCase) onTimer(id string) {
	s.mu.Lock()
	ctx := s.baseCtx
	_, armed := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()

	if !armed {
		return
	}

	if s.metrics != nil {
		s.metrics.SchedulesArmed.Dec()
	}

	if ctx.Err() != nil {
		return
	}

	if _, err := s.Fire(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("schedule_id", id).Msg("timer fire failed, sweep will retry")
	}
}

func (s *SchedulerUseCase) disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[id]
	if !ok {
		return
	}

	t.Stop()
	delete(s.timers, id)

	if s.metrics != nil {
		s.metrics.SchedulesArmed.Dec()
	}
}

func (s *SchedulerUseCase) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}

	if s.metrics != nil {
		s.metrics.SchedulesArmed.Set(0)
	}
}

func (s *SchedulerUseCase) finished(st *domain.ScheduledTransfer) {
	if s.metrics != nil {
		s.metrics.SchedulesFinished.WithLabelValues(string(st.Status)).Inc()
	}
}

func (s *SchedulerUseCase) invalidateProgress(ctx context.Context, goal *domain.Goal) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, goalProgressKey(goal.UserID, goal.ID)); err != nil {
		s.logger.Warn().Err(err).Str("goal_id", goal.ID).Msg("failed to drop cached goal progress")
	}
}
