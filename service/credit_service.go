package service

import (
	"context"
	"fmt"
	"time"

	"owldoor/models"

	"github.com/shopspring/decimal"
)

type creditService struct {
	uowFactory UnitOfWorkFactory
}

// NewCreditService creates a new credit service
func NewCreditService(uowFactory UnitOfWorkFactory) CreditService {
	return &creditService{
		uowFactory: uowFactory,
	}
}

// GrantCredits adds credits to a client's balance and records the ledger
// entry in the same transaction
func (s *creditService) GrantCredits(ctx context.Context, clientID int64, amount decimal.Decimal, reason models.CreditReason, metadata map[string]any) (*models.CreditTransaction, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("grant amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	client, err := uow.ClientRepository().GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("client %d not found", clientID)
	}

	if err := uow.ClientRepository().AddCredits(ctx, clientID, amount); err != nil {
		return nil, fmt.Errorf("failed to add credits: %w", err)
	}

	entry := &models.CreditTransaction{
		ClientID:      clientID,
		Amount:        amount,
		BalanceBefore: client.CreditsBalance,
		BalanceAfter:  client.CreditsBalance.Add(amount),
		Reason:        reason,
		Metadata:      metadata,
	}

	if err := RecordCreditChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record credit change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entry, nil
}

// GetLedger returns recent ledger entries for a client
func (s *creditService) GetLedger(ctx context.Context, clientID int64, limit int) ([]*models.CreditTransaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.CreditTransactionRepository().GetByClient(ctx, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for client %d: %w", clientID, err)
	}

	return entries, nil
}

// GetLedgerByDateRange returns ledger entries within [from, to)
func (s *creditService) GetLedgerByDateRange(ctx context.Context, clientID int64, from, to time.Time) ([]*models.CreditTransaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.CreditTransactionRepository().GetByDateRange(ctx, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for client %d in date range: %w", clientID, err)
	}

	return entries, nil
}

// VerifyLedger recomputes a client's balance from the ledger and reports
// whether it matches the stored balance. The ledger is the source of truth;
// a mismatch means the cached balance has drifted.
func (s *creditService) VerifyLedger(ctx context.Context, clientID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	client, err := uow.ClientRepository().GetByID(ctx, clientID)
	if err != nil {
		return false, fmt.Errorf("failed to get client: %w", err)
	}
	if client == nil {
		return false, fmt.Errorf("client %d not found", clientID)
	}

	sum, err := uow.CreditTransactionRepository().SumByClient(ctx, clientID)
	if err != nil {
		return false, fmt.Errorf("failed to sum ledger: %w", err)
	}

	return client.CreditsBalance.Equal(sum), nil
}
