package usecase

import (
	"context"
	"fmt"

	"github.com/bufl/ledger/internal/domain"
)

// goalLedger posts contributions to a goal together with the transfer that
// funds them, so currentAmount never drifts from the savings account.
type goalLedger struct {
	goalRepo   GoalRepository
	outboxRepo OutboxRepository
	engine     *TransferUseCase
	idGen      IDGenerator
}

// contribute locks the goal, checks the target, moves amount from the goal's
// funding account to its savings account and bumps currentAmount. Lock order
// is goal row first, then accounts.
func (l *goalLedger) contribute(ctx context.Context, tx Transaction, goalID string, amount domain.Money) (*domain.Goal, *domain.TransferResult, error) {
	goal, err := l.goalRepo.GetByIDForUpdate(ctx, tx, goalID)
	if err != nil {
		return nil, nil, err
	}

	if err := goal.ValidateContribution(amount); err != nil {
		return nil, nil, err
	}

	result, err := l.engine.ExecuteTx(ctx, tx, TransferInput{
		TransferIntent: domain.TransferIntent{
			FromAccountID: goal.AccountID,
			ToAccountID:   goal.SavingsAccountID,
			Description:   domain.DescriptionGoalSaving,
			Amount:        amount,
		},
		GoalID: &goal.ID,
	})
	if err != nil {
		return nil, nil, err
	}

	goal.CurrentAmount += amount
	goal.UpdatedAt = result.ExecutedAt

	if err := l.goalRepo.UpdateCurrentAmount(ctx, tx, goal.ID, goal.CurrentAmount, goal.UpdatedAt); err != nil {
		return nil, nil, fmt.Errorf("update goal %s: %w", goal.ID, err)
	}

	event := domain.NewGoalContributedEvent(l.idGen.Generate(), goal, result.TransferID, amount, result.ExecutedAt)
	if err := l.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, nil, err
	}

	return goal, result, nil
}

func goalProgressKey(userID, goalID string) string {
	return "goal-progress:" + userID + ":" + goalID
}
