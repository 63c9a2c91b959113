package service

import (
	"context"
	"fmt"

	"owldoor/config"
	"owldoor/models"

	"github.com/shopspring/decimal"
)

type clientService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewClientService creates a new client service
func NewClientService(uowFactory UnitOfWorkFactory, cfg *config.Config) ClientService {
	return &clientService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// CreateClient creates a new client. When the configured initial credit grant
// is positive it is applied through the ledger in the same transaction.
func (s *clientService) CreateClient(ctx context.Context, client *models.Client) (*models.Client, error) {
	if client.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if len(client.CoverageCities) == 0 && len(client.CoverageStates) == 0 {
		return nil, &ValidationError{Field: "coverage", Reason: "at least one coverage city or state is required"}
	}
	if client.CostPerMatch != nil && client.CostPerMatch.Sign() <= 0 {
		return nil, &ValidationError{Field: "cost_per_match", Reason: "must be positive"}
	}

	client.Active = true

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	initial := s.cfg.InitialClientCredits
	client.CreditsBalance = initial

	if err := uow.ClientRepository().Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if initial.Sign() > 0 {
		entry := &models.CreditTransaction{
			ClientID:      client.ID,
			Amount:        initial,
			BalanceBefore: decimal.Zero,
			BalanceAfter:  initial,
			Reason:        models.CreditReasonInitial,
			Metadata: map[string]any{
				"client_name": client.Name,
			},
		}
		if err := RecordCreditChange(ctx, uow, entry); err != nil {
			return nil, fmt.Errorf("failed to record initial grant: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return client, nil
}

// GetClient retrieves a client by ID
func (s *clientService) GetClient(ctx context.Context, clientID int64) (*models.Client, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	client, err := uow.ClientRepository().GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// UpdateMatchingCriteria updates a client's coverage area and preferences
func (s *clientService) UpdateMatchingCriteria(ctx context.Context, client *models.Client) error {
	if len(client.CoverageCities) == 0 && len(client.CoverageStates) == 0 {
		return &ValidationError{Field: "coverage", Reason: "at least one coverage city or state is required"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.ClientRepository().UpdateCriteria(ctx, client); err != nil {
		return fmt.Errorf("failed to update criteria: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeactivateClient marks a client inactive. Deactivated clients stop
// receiving matches but keep their records and ledger.
func (s *clientService) DeactivateClient(ctx context.Context, clientID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.ClientRepository().Deactivate(ctx, clientID); err != nil {
		return fmt.Errorf("failed to deactivate client: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
