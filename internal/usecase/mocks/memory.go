package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bufl/ledger/internal/domain"
	"github.com/bufl/ledger/internal/usecase"
)

// ErrTxClosed is returned when a finished memory transaction is reused.
var ErrTxClosed = errors.New("tx is closed")

// MemoryStore is an in-memory ledger store with row locks that behave like
// SELECT ... FOR UPDATE: a lock is held from acquisition until the owning
// transaction commits or rolls back, and writes become visible on commit.
type MemoryStore struct {
	mu         sync.Mutex
	locks      map[string]*sync.Mutex
	accounts   map[string]*domain.Account
	entries    []*domain.Entry
	schedules  map[string]*domain.ScheduledTransfer
	goals      map[string]*domain.Goal
	categories map[string][]*domain.Category
	salaries   map[string]*domain.Salary
	events     []*domain.OutboxEvent
	sequence   int64

	// CommitHook runs before a commit is applied. A non-nil error aborts the
	// commit and rolls the transaction back.
	CommitHook func() error
	// BeginHook runs before a transaction starts.
	BeginHook func() error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:      make(map[string]*sync.Mutex),
		accounts:   make(map[string]*domain.Account),
		schedules:  make(map[string]*domain.ScheduledTransfer),
		goals:      make(map[string]*domain.Goal),
		categories: make(map[string][]*domain.Category),
		salaries:   make(map[string]*domain.Salary),
	}
}

// Begin starts a transaction.
func (s *MemoryStore) Begin(ctx context.Context) (usecase.Transaction, error) {
	if s.BeginHook != nil {
		if err := s.BeginHook(); err != nil {
			return nil, err
		}
	}
	return &memTx{store: s, held: make(map[string]*sync.Mutex)}, nil
}

// SeedAccount stores an account as committed state. Balance defaults to the
// opening balance.
func (s *MemoryStore) SeedAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Balance == 0 {
		a.Balance = a.OpeningBalance
	}
	cp := *a
	s.accounts[a.ID] = &cp
}

// Account returns a committed copy of an account, or nil.
func (s *MemoryStore) Account(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// AllEntries returns every committed entry in commit order.
func (s *MemoryStore) AllEntries() []*domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Entry, len(s.entries))
	for i, e := range s.entries {
		cp := *e
		out[i] = &cp
	}
	return out
}

// Events returns every committed outbox event.
func (s *MemoryStore) Events() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), s.events...)
}

// EventsOfType returns committed outbox events with the given type.
func (s *MemoryStore) EventsOfType(eventType string) []*domain.OutboxEvent {
	var out []*domain.OutboxEvent
	for _, e := range s.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// TotalBalance sums every committed balance.
func (s *MemoryStore) TotalBalance() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total domain.Money
	for _, a := range s.accounts {
		total += a.Balance
	}
	return total
}

// Accounts returns the AccountRepository view.
func (s *MemoryStore) Accounts() *MemoryAccounts { return &MemoryAccounts{s} }

// Entries returns the EntryRepository view.
func (s *MemoryStore) Entries() *MemoryEntries { return &MemoryEntries{s} }

// Schedules returns the ScheduledTransferRepository view.
func (s *MemoryStore) Schedules() *MemorySchedules { return &MemorySchedules{s} }

// Goals returns the GoalRepository view.
func (s *MemoryStore) Goals() *MemoryGoals { return &MemoryGoals{s} }

// Categories returns the CategoryRepository view.
func (s *MemoryStore) Categories() *MemoryCategories { return &MemoryCategories{s} }

// Salaries returns the SalaryRepository view.
func (s *MemoryStore) Salaries() *MemorySalaries { return &MemorySalaries{s} }

// Ledger returns the LedgerRepository view.
func (s *MemoryStore) Ledger() *MemoryLedger { return &MemoryLedger{s} }

// Outbox returns the OutboxRepository view.
func (s *MemoryStore) Outbox() *MemoryOutbox { return &MemoryOutbox{s} }

func (s *MemoryStore) rowLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// apply runs fn with the store mutex held; without a transaction it is an
// autocommit write.
func (s *MemoryStore) apply(tx usecase.Transaction, fn func()) error {
	if tx == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
		return nil
	}
	t, ok := tx.(*memTx)
	if !ok {
		return errors.New("foreign transaction")
	}
	return t.stage(fn)
}

type memTx struct {
	mu    sync.Mutex
	store *MemoryStore
	held  map[string]*sync.Mutex
	ops   []func()
	done  bool
}

func (t *memTx) lock(key string) {
	t.mu.Lock()
	_, ok := t.held[key]
	t.mu.Unlock()
	if ok {
		return
	}
	m := t.store.rowLock(key)
	m.Lock()
	t.mu.Lock()
	t.held[key] = m
	t.mu.Unlock()
}

func (t *memTx) tryLock(key string) bool {
	t.mu.Lock()
	_, ok := t.held[key]
	t.mu.Unlock()
	if ok {
		return true
	}
	m := t.store.rowLock(key)
	if !m.TryLock() {
		return false
	}
	t.mu.Lock()
	t.held[key] = m
	t.mu.Unlock()
	return true
}

func (t *memTx) stage(op func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxClosed
	}
	t.ops = append(t.ops, op)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return ErrTxClosed
	}
	t.done = true
	ops := t.ops
	t.ops = nil
	t.mu.Unlock()

	if t.store.CommitHook != nil {
		if err := t.store.CommitHook(); err != nil {
			t.release()
			return err
		}
	}

	t.store.mu.Lock()
	for _, op := range ops {
		op()
	}
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	t.ops = nil
	t.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) release() {
	t.mu.Lock()
	held := t.held
	t.held = make(map[string]*sync.Mutex)
	t.mu.Unlock()
	for _, m := range held {
		m.Unlock()
	}
}

func asMemTx(tx usecase.Transaction) (*memTx, error) {
	t, ok := tx.(*memTx)
	if !ok {
		return nil, errors.New("foreign transaction")
	}
	return t, nil
}

// MemoryAccounts implements usecase.AccountRepository.
type MemoryAccounts struct{ s *MemoryStore }

func (r *MemoryAccounts) Create(ctx context.Context, account *domain.Account) error {
	return r.CreateTx(ctx, nil, account)
}

func (r *MemoryAccounts) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	r.s.mu.Lock()
	for _, a := range r.s.accounts {
		if a.Number == account.Number {
			r.s.mu.Unlock()
			return domain.ErrDuplicateAccount
		}
	}
	r.s.mu.Unlock()

	cp := *account
	return r.s.apply(tx, func() { r.s.accounts[cp.ID] = &cp })
}

func (r *MemoryAccounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if a := r.s.Account(id); a != nil {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *MemoryAccounts) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var accounts []*domain.Account
	for _, id := range sorted {
		if r.s.Account(id) == nil {
			continue
		}
		t.lock("account:" + id)
		if a := r.s.Account(id); a != nil {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (r *MemoryAccounts) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, updatedAt time.Time) error {
	return r.s.apply(tx, func() {
		if a, ok := r.s.accounts[id]; ok {
			a.Balance = balance
			a.Version++
			a.UpdatedAt = updatedAt
		}
	})
}

func (r *MemoryAccounts) ListByOwner(ctx context.Context, ownerUserID string) ([]*domain.Account, error) {
	all, _ := r.List(ctx, 1<<30, 0)
	var out []*domain.Account
	for _, a := range all {
		if a.OwnerUserID == ownerUserID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryAccounts) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.s.mu.Lock()
	var all []*domain.Account
	for _, a := range r.s.accounts {
		cp := *a
		all = append(all, &cp)
	}
	r.s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

// MemoryEntries implements usecase.EntryRepository.
type MemoryEntries struct{ s *MemoryStore }

func (r *MemoryEntries) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	cp := *entry
	return r.s.apply(tx, func() {
		r.s.sequence++
		cp.Sequence = r.s.sequence
		r.s.entries = append(r.s.entries, &cp)
	})
}

func (r *MemoryEntries) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range r.s.AllEntries() {
		if e.TransferID == transferID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryEntries) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range r.s.AllEntries() {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (r *MemoryEntries) ListOutgoing(ctx context.Context, accountID, description string, limit, offset int) ([]*domain.Entry, error) {
	var out []*domain.Entry
	all := r.s.AllEntries()
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if e.AccountID == accountID && e.Direction == domain.DirectionOut && e.Description == description {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (r *MemoryEntries) ListByGoal(ctx context.Context, goalID string, limit, offset int) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range r.s.AllEntries() {
		if e.GoalID != nil && *e.GoalID == goalID {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (r *MemoryEntries) SumByAccount(ctx context.Context, accountID string) (domain.Money, domain.Money, *domain.Entry, error) {
	var (
		in, out domain.Money
		latest  *domain.Entry
	)
	for _, e := range r.s.AllEntries() {
		if e.AccountID != accountID {
			continue
		}
		if e.Direction == domain.DirectionIn {
			in += e.Amount
		} else {
			out += e.Amount
		}
		latest = e
	}
	return in, out, latest, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	return items[offset:min(offset+limit, len(items))]
}

// MemorySchedules implements usecase.ScheduledTransferRepository.
type MemorySchedules struct{ s *MemoryStore }

func (r *MemorySchedules) Create(ctx context.Context, tx usecase.Transaction, st *domain.ScheduledTransfer) error {
	cp := *st
	return r.s.apply(tx, func() { r.s.schedules[cp.ID] = &cp })
}

func (r *MemorySchedules) get(id string) *domain.ScheduledTransfer {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.schedules[id]
	if !ok {
		return nil
	}
	cp := *st
	return &cp
}

func (r *MemorySchedules) GetByID(ctx context.Context, id string) (*domain.ScheduledTransfer, error) {
	if st := r.get(id); st != nil {
		return st, nil
	}
	return nil, domain.ErrScheduleNotFound
}

func (r *MemorySchedules) ClaimPending(ctx context.Context, tx usecase.Transaction, id string) (*domain.ScheduledTransfer, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	if !t.tryLock("schedule:" + id) {
		return nil, nil
	}
	st := r.get(id)
	if st == nil || st.Status != domain.ScheduleStatusPending {
		return nil, nil
	}
	return st, nil
}

func (r *MemorySchedules) UpdateStatus(ctx context.Context, tx usecase.Transaction, st *domain.ScheduledTransfer) error {
	if current := r.get(st.ID); current == nil || current.Status != domain.ScheduleStatusPending {
		return domain.ErrScheduleNotPending
	}
	cp := *st
	return r.s.apply(tx, func() { r.s.schedules[cp.ID] = &cp })
}

func (r *MemorySchedules) ListPending(ctx context.Context) ([]*domain.ScheduledTransfer, error) {
	return r.list(func(st *domain.ScheduledTransfer) bool { return st.Status == domain.ScheduleStatusPending }, 0), nil
}

func (r *MemorySchedules) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledTransfer, error) {
	return r.list(func(st *domain.ScheduledTransfer) bool {
		return st.Status == domain.ScheduleStatusPending && st.IsDue(now)
	}, limit), nil
}

func (r *MemorySchedules) list(keep func(*domain.ScheduledTransfer) bool, limit int) []*domain.ScheduledTransfer {
	r.s.mu.Lock()
	var out []*domain.ScheduledTransfer
	for _, st := range r.s.schedules {
		if keep(st) {
			cp := *st
			out = append(out, &cp)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MemoryGoals implements usecase.GoalRepository.
type MemoryGoals struct{ s *MemoryStore }

func (r *MemoryGoals) Create(ctx context.Context, tx usecase.Transaction, goal *domain.Goal) error {
	cp := *goal
	return r.s.apply(tx, func() { r.s.goals[cp.ID] = &cp })
}

func (r *MemoryGoals) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *MemoryGoals) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Goal, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	t.lock("goal:" + id)
	return r.GetByID(ctx, id)
}

func (r *MemoryGoals) UpdateCurrentAmount(ctx context.Context, tx usecase.Transaction, id string, amount domain.Money, updatedAt time.Time) error {
	return r.s.apply(tx, func() {
		if g, ok := r.s.goals[id]; ok {
			g.CurrentAmount = amount
			g.UpdatedAt = updatedAt
		}
	})
}

func (r *MemoryGoals) ListByUser(ctx context.Context, userID string) ([]*domain.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Goal
	for _, g := range r.s.goals {
		if g.UserID == userID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryCategories implements usecase.CategoryRepository.
type MemoryCategories struct{ s *MemoryStore }

func (r *MemoryCategories) ReplaceForUser(ctx context.Context, tx usecase.Transaction, userID string, categories []*domain.Category) error {
	cps := make([]*domain.Category, len(categories))
	for i, c := range categories {
		cp := *c
		cps[i] = &cp
	}
	return r.s.apply(tx, func() { r.s.categories[userID] = cps })
}

func (r *MemoryCategories) ListByUser(ctx context.Context, userID string) ([]*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Category
	for _, c := range r.s.categories[userID] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, set := range r.s.categories {
		for _, c := range set {
			if c.ID == id {
				cp := *c
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (r *MemoryCategories) UpdateComputedAmounts(ctx context.Context, tx usecase.Transaction, categories []*domain.Category) error {
	amounts := make(map[string]domain.Money, len(categories))
	for _, c := range categories {
		amounts[c.ID] = c.ComputedAmount
	}
	return r.s.apply(tx, func() {
		for _, set := range r.s.categories {
			for _, c := range set {
				if amount, ok := amounts[c.ID]; ok {
					c.ComputedAmount = amount
				}
			}
		}
	})
}

func (r *MemoryCategories) LinkAccount(ctx context.Context, id, accountID string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, set := range r.s.categories {
		for _, c := range set {
			if c.ID == id {
				linked := accountID
				c.LinkedAccountID = &linked
				c.UpdatedAt = updatedAt
				return nil
			}
		}
	}
	return domain.ErrCategoryNotFound
}

// MemorySalaries implements usecase.SalaryRepository.
type MemorySalaries struct{ s *MemoryStore }

func (r *MemorySalaries) Upsert(ctx context.Context, tx usecase.Transaction, salary *domain.Salary) error {
	cp := *salary
	return r.s.apply(tx, func() { r.s.salaries[cp.UserID] = &cp })
}

func (r *MemorySalaries) GetByUser(ctx context.Context, userID string) (*domain.Salary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.salaries[userID]
	if !ok {
		return nil, domain.ErrSalaryNotFound
	}
	cp := *s
	return &cp, nil
}

// MemoryLedger implements usecase.LedgerRepository.
type MemoryLedger struct{ s *MemoryStore }

func (r *MemoryLedger) Totals(ctx context.Context) (*domain.LedgerTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := &domain.LedgerTotals{AccountCount: len(r.s.accounts)}
	for _, a := range r.s.accounts {
		totals.TotalBalance += a.Balance
		totals.TotalOpeningBalance += a.OpeningBalance
		if a.Balance < 0 {
			totals.NegativeAccounts++
		}
	}
	return totals, nil
}

func (r *MemoryLedger) UnpairedTransfers(ctx context.Context, limit int) ([]string, error) {
	byTransfer := make(map[string][]*domain.Entry)
	var order []string
	for _, e := range r.s.AllEntries() {
		if _, ok := byTransfer[e.TransferID]; !ok {
			order = append(order, e.TransferID)
		}
		byTransfer[e.TransferID] = append(byTransfer[e.TransferID], e)
	}

	var out []string
	for _, id := range order {
		entries := byTransfer[id]
		if len(entries) != 2 || !entries[0].IsPairOf(entries[1]) {
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// MemoryOutbox implements usecase.OutboxRepository.
type MemoryOutbox struct{ s *MemoryStore }

func (r *MemoryOutbox) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	cp := *event
	return r.s.apply(tx, func() { r.s.events = append(r.s.events, &cp) })
}

func (r *MemoryOutbox) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.s.events {
		if !e.Published {
			cp := *e
			out = append(out, &cp)
		}
	}
	return page(out, limit, 0), nil
}

func (r *MemoryOutbox) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (r *MemoryOutbox) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	for _, e := range r.s.Events() {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (r *MemoryOutbox) DeletePublished(ctx context.Context, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.events[:0]
	for _, e := range r.s.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.s.events = kept
	return nil
}

var (
	_ usecase.TransactionManager          = (*MemoryStore)(nil)
	_ usecase.AccountRepository           = (*MemoryAccounts)(nil)
	_ usecase.EntryRepository             = (*MemoryEntries)(nil)
	_ usecase.ScheduledTransferRepository = (*MemorySchedules)(nil)
	_ usecase.GoalRepository              = (*MemoryGoals)(nil)
	_ usecase.CategoryRepository          = (*MemoryCategories)(nil)
	_ usecase.SalaryRepository            = (*MemorySalaries)(nil)
	_ usecase.LedgerRepository            = (*MemoryLedger)(nil)
	_ usecase.OutboxRepository            = (*MemoryOutbox)(nil)
	_ usecase.AccountRepository           = (*FakeAccountRepository)(nil)
)
