package service

import (
	"context"
	"testing"

	"owldoor/config"
	"owldoor/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func createTestClientService(cfg *config.Config) (ClientService, *matchServiceMocks) {
	m := &matchServiceMocks{
		factory:    new(MockUnitOfWorkFactory),
		uow:        new(MockUnitOfWork),
		leadRepo:   new(MockLeadRepository),
		clientRepo: new(MockClientRepository),
		matchRepo:  new(MockMatchRepository),
		missedRepo: new(MockMissedMatchRepository),
		creditRepo: new(MockCreditTransactionRepository),
		publisher:  new(MockEventPublisher),
	}

	m.uow.SetRepositories(m.leadRepo, m.clientRepo, m.matchRepo, m.missedRepo, m.creditRepo, m.publisher)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Rollback").Return(nil)

	return NewClientService(m.factory, cfg), m
}

func TestCreateClient(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active client without initial grant", func(t *testing.T) {
		service, m := createTestClientService(&config.Config{InitialClientCredits: decimal.Zero})

		m.clientRepo.On("Create", ctx, mock.Anything).Return(nil)
		m.uow.On("Commit").Return(nil)

		client, err := service.CreateClient(ctx, &models.Client{
			Name:           "Brokerage",
			CoverageStates: []string{"TX"},
		})

		assert.NoError(t, err)
		assert.True(t, client.Active)
		assert.True(t, client.CreditsBalance.IsZero())
		// Zero initial credits write no ledger entry
		m.creditRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("applies configured initial credits through the ledger", func(t *testing.T) {
		service, m := createTestClientService(&config.Config{InitialClientCredits: decimal.NewFromInt(500)})

		m.clientRepo.On("Create", ctx, mock.Anything).Return(nil)
		m.creditRepo.On("Record", ctx, mock.MatchedBy(func(entry *models.CreditTransaction) bool {
			return entry.Amount.Equal(decimal.NewFromInt(500)) &&
				entry.BalanceBefore.IsZero() &&
				entry.BalanceAfter.Equal(decimal.NewFromInt(500)) &&
				entry.Reason == models.CreditReasonInitial
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return()
		m.uow.On("Commit").Return(nil)

		client, err := service.CreateClient(ctx, &models.Client{
			Name:           "Brokerage",
			CoverageStates: []string{"TX"},
		})

		assert.NoError(t, err)
		assert.True(t, client.CreditsBalance.Equal(decimal.NewFromInt(500)))
		m.creditRepo.AssertExpectations(t)
	})

	t.Run("rejects missing coverage", func(t *testing.T) {
		service, m := createTestClientService(&config.Config{})

		_, err := service.CreateClient(ctx, &models.Client{Name: "Brokerage"})

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "coverage", validationErr.Field)
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("rejects non-positive cost per match", func(t *testing.T) {
		service, _ := createTestClientService(&config.Config{})

		zero := decimal.Zero
		_, err := service.CreateClient(ctx, &models.Client{
			Name:           "Brokerage",
			CoverageStates: []string{"TX"},
			CostPerMatch:   &zero,
		})

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestUpdateMatchingCriteria(t *testing.T) {
	ctx := context.Background()

	t.Run("updates coverage and preferences", func(t *testing.T) {
		service, m := createTestClientService(&config.Config{})

		client := fundedClient(10, 500)
		client.Preferences = []string{"sell"}

		m.clientRepo.On("UpdateCriteria", ctx, client).Return(nil)
		m.uow.On("Commit").Return(nil)

		assert.NoError(t, service.UpdateMatchingCriteria(ctx, client))
		m.clientRepo.AssertExpectations(t)
	})

	t.Run("rejects emptying the coverage area", func(t *testing.T) {
		service, m := createTestClientService(&config.Config{})

		err := service.UpdateMatchingCriteria(ctx, &models.Client{ID: 10, Name: "Brokerage"})

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		m.factory.AssertNotCalled(t, "Create")
	})
}

func TestDeactivateClient(t *testing.T) {
	ctx := context.Background()
	service, m := createTestClientService(&config.Config{})

	m.clientRepo.On("Deactivate", ctx, int64(10)).Return(nil)
	m.uow.On("Commit").Return(nil)

	assert.NoError(t, service.DeactivateClient(ctx, 10))
	m.clientRepo.AssertExpectations(t)
	m.uow.AssertExpectations(t)
}
