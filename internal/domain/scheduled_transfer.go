package domain

import "time"

// ScheduleStatus is the lifecycle state of a scheduled transfer.
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "PENDING"
	ScheduleStatusExecuted  ScheduleStatus = "EXECUTED"
	ScheduleStatusFailed    ScheduleStatus = "FAILED"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
	ScheduleStatusLost      ScheduleStatus = "LOST"
)

// IsTerminal reports whether no further transition is possible.
func (s ScheduleStatus) IsTerminal() bool {
	return s != ScheduleStatusPending
}

// IsValid reports whether s is a known status.
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusExecuted, ScheduleStatusFailed,
		ScheduleStatusCancelled, ScheduleStatusLost:
		return true
	}
	return false
}

// ScheduledTransfer is a durable deferred transfer. It leaves PENDING exactly
// once.
type ScheduledTransfer struct {
	FireAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExecutedAt    *time.Time
	GoalID        *string
	TransferID    *string
	ID            string
	FromAccountID string
	ToAccountID   string
	Description   string
	FailureReason string
	Status        ScheduleStatus
	Amount        Money
}

// Intent returns the transfer this schedule will execute.
func (s *ScheduledTransfer) Intent() TransferIntent {
	return TransferIntent{
		FromAccountID: s.FromAccountID,
		ToAccountID:   s.ToAccountID,
		Amount:        s.Amount,
		Description:   s.Description,
	}
}

// IsDue reports whether the transfer may fire at now.
func (s *ScheduledTransfer) IsDue(now time.Time) bool {
	return !now.Before(s.FireAt)
}

// Lateness is how far past FireAt now is; zero when not yet due.
func (s *ScheduledTransfer) Lateness(now time.Time) time.Duration {
	if !s.IsDue(now) {
		return 0
	}
	return now.Sub(s.FireAt)
}

// Transition moves the schedule out of PENDING.
func (s *ScheduledTransfer) Transition(to ScheduleStatus, at time.Time) error {
	if s.Status != ScheduleStatusPending || !to.IsTerminal() || !to.IsValid() {
		return ErrScheduleNotPending
	}

	s.Status = to
	s.UpdatedAt = at
	if to == ScheduleStatusExecuted {
		s.ExecutedAt = &at
	}

	return nil
}
