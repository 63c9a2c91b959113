package service

import (
	"context"
	"fmt"

	"owldoor/events"
	"owldoor/models"
)

// RecordCreditChange records a credit ledger entry and emits the change event.
// This is the single entry point for all ledger writes in the system; the
// caller is responsible for co-updating the client balance in the same unit
// of work so the stored balance never drifts from the ledger sum.
func RecordCreditChange(ctx context.Context, uow UnitOfWork, entry *models.CreditTransaction) error {
	if err := uow.CreditTransactionRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}

	// Emitted only after the transaction commits
	uow.EventBus().Publish(events.CreditChangeEvent{
		ClientID:     entry.ClientID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		ChangeAmount: entry.Amount,
		Reason:       entry.Reason,
	})

	return nil
}
