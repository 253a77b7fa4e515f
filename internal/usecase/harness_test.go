package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/infrastructure/metrics"
	"github.com/bufl/ledger/internal/usecase"
	"github.com/bufl/ledger/internal/usecase/mocks"
)

var epoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// ledgerEnv wires every use case over one MemoryStore and FakeClock.
type ledgerEnv struct {
	store      *mocks.MemoryStore
	clock      *mocks.FakeClock
	metrics    *metrics.Metrics
	engine     *usecase.TransferUseCase
	scheduler  *usecase.SchedulerUseCase
	allocation *usecase.AllocationUseCase
	accounts   *usecase.AccountUseCase
}

type envOption func(*usecase.SchedulerConfig)

func withMaxLateness(d time.Duration) envOption {
	return func(cfg *usecase.SchedulerConfig) { cfg.MaxLateness = d }
}

func newLedgerEnv(t *testing.T, opts ...envOption) *ledgerEnv {
	t.Helper()

	store := mocks.NewMemoryStore()
	clock := mocks.NewFakeClock(epoch)
	idGen := mocks.NewSequenceIDGenerator()
	m := metrics.New(prometheus.NewRegistry())
	logger := zerolog.Nop()

	cfg := usecase.SchedulerConfig{PollInterval: time.Second, BatchSize: 10}
	for _, opt := range opts {
		opt(&cfg)
	}

	engine := usecase.NewTransferUseCase(store, store.Accounts(), store.Entries(), store.Outbox(), idGen, nil, m).
		WithClock(clock)

	scheduler := usecase.NewSchedulerUseCase(
		store, store.Schedules(), store.Goals(), store.Outbox(), engine, idGen, nil, m, logger, cfg,
	).WithClock(clock)

	allocation := usecase.NewAllocationUseCase(usecase.AllocationDeps{
		TxManager:    store,
		AccountRepo:  store.Accounts(),
		SalaryRepo:   store.Salaries(),
		CategoryRepo: store.Categories(),
		GoalRepo:     store.Goals(),
		EntryRepo:    store.Entries(),
		OutboxRepo:   store.Outbox(),
		Engine:       engine,
		Scheduler:    scheduler,
		IDGen:        idGen,
		Metrics:      m,
		Logger:       logger,
	}, usecase.AllocationConfig{}).WithClock(clock)

	return &ledgerEnv{
		store:      store,
		clock:      clock,
		metrics:    m,
		engine:     engine,
		scheduler:  scheduler,
		allocation: allocation,
		accounts:   usecase.NewAccountUseCase(store, store.Accounts(), store.Outbox(), idGen, m),
	}
}

func (e *ledgerEnv) seed(id, owner string, balance domain.Money) *domain.Account {
	a := &domain.Account{
		ID:             id,
		OwnerUserID:    owner,
		Number:         "110-" + id,
		BankName:       "Test Bank",
		Balance:        balance,
		OpeningBalance: balance,
		CreatedAt:      epoch,
		UpdatedAt:      epoch,
	}
	e.store.SeedAccount(a)
	return a
}

func (e *ledgerEnv) balance(t *testing.T, id string) domain.Money {
	t.Helper()
	a := e.store.Account(id)
	if a == nil {
		t.Fatalf("account %s not found", id)
	}
	return a.Balance
}

func transfer(from, to string, amount domain.Money) usecase.TransferInput {
	return usecase.TransferInput{
		TransferIntent: domain.TransferIntent{
			FromAccountID: from,
			ToAccountID:   to,
			Description:   "test transfer",
			Amount:        amount,
		},
	}
}

func assertLedgerConsistent(t *testing.T, e *ledgerEnv) {
	t.Helper()

	report, err := usecase.NewLedgerUseCase(e.store.Ledger()).CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}
	if !report.Consistent {
		t.Fatalf("ledger inconsistent: %+v", report)
	}
}

// persistSchedule stores a PENDING transfer without arming it, as a previous
// process would have left it.
func persistSchedule(t *testing.T, e *ledgerEnv, input usecase.ScheduleInput) *domain.ScheduledTransfer {
	t.Helper()

	ctx := context.Background()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	st, err := e.scheduler.ScheduleTx(ctx, tx, input)
	if err != nil {
		t.Fatalf("ScheduleTx: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	return st
}
