package domain

import "time"

// Event types
const (
	EventTypeTransferExecuted  = "transfer.executed"
	EventTypeScheduleCreated   = "schedule.created"
	EventTypeScheduleExecuted  = "schedule.executed"
	EventTypeScheduleFailed    = "schedule.failed"
	EventTypeScheduleCancelled = "schedule.cancelled"
	EventTypeScheduleLost      = "schedule.lost"
	EventTypeGoalContributed   = "goal.contributed"
	EventTypeAccountCreated    = "account.created"
)

// Aggregate types
const (
	AggregateTypeTransfer = "transfer"
	AggregateTypeSchedule = "schedule"
	AggregateTypeGoal     = "goal"
	AggregateTypeAccount  = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransferExecutedEvent builds the outbox event for a committed transfer.
func NewTransferExecutedEvent(id string, r *TransferResult) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   r.TransferID,
		AggregateType: AggregateTypeTransfer,
		EventType:     EventTypeTransferExecuted,
		Payload: map[string]any{
			"transfer_id":      r.TransferID,
			"from_account_id":  r.FromAccountID,
			"to_account_id":    r.ToAccountID,
			"amount":           int64(r.Amount),
			"description":      r.Description,
			"new_from_balance": int64(r.NewFromBalance),
			"new_to_balance":   int64(r.NewToBalance),
			"executed_at":      r.ExecutedAt.UTC().Format(time.RFC3339Nano),
		},
		CreatedAt: r.ExecutedAt,
	}
}

// NewScheduleEvent builds a schedule lifecycle event of eventType.
func NewScheduleEvent(id, eventType string, st *ScheduledTransfer, at time.Time) *OutboxEvent {
	payload := map[string]any{
		"schedule_id":     st.ID,
		"from_account_id": st.FromAccountID,
		"to_account_id":   st.ToAccountID,
		"amount":          int64(st.Amount),
		"fire_at":         st.FireAt.UTC().Format(time.RFC3339Nano),
		"status":          string(st.Status),
	}
	if st.TransferID != nil {
		payload["transfer_id"] = *st.TransferID
	}
	if st.FailureReason != "" {
		payload["failure_reason"] = st.FailureReason
	}
	if st.GoalID != nil {
		payload["goal_id"] = *st.GoalID
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   st.ID,
		AggregateType: AggregateTypeSchedule,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}

// NewGoalContributedEvent builds the outbox event for a goal contribution.
func NewGoalContributedEvent(id string, g *Goal, transferID string, amount Money, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   g.ID,
		AggregateType: AggregateTypeGoal,
		EventType:     EventTypeGoalContributed,
		Payload: map[string]any{
			"goal_id":        g.ID,
			"transfer_id":    transferID,
			"amount":         int64(amount),
			"current_amount": int64(g.CurrentAmount),
			"target_amount":  int64(g.TargetAmount),
		},
		CreatedAt: at,
	}
}

// NewAccountCreatedEvent builds the outbox event for a new account.
func NewAccountCreatedEvent(id string, a *Account) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   a.ID,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeAccountCreated,
		Payload: map[string]any{
			"account_id":      a.ID,
			"owner_user_id":   a.OwnerUserID,
			"number":          a.Number,
			"opening_balance": int64(a.OpeningBalance),
		},
		CreatedAt: a.CreatedAt,
	}
}
