package service

import (
	"context"
	"testing"
	"time"

	"owldoor/events"
	"owldoor/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func createTestCreditService() (CreditService, *matchServiceMocks) {
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

	return NewCreditService(m.factory), m
}

func TestGrantCredits(t *testing.T) {
	ctx := context.Background()

	t.Run("records a ledger entry with balance snapshots", func(t *testing.T) {
		service, m := createTestCreditService()

		client := fundedClient(10, 200)
		m.clientRepo.On("GetByID", ctx, client.ID).Return(client, nil)
		m.clientRepo.On("AddCredits", ctx, client.ID, decimal.NewFromInt(50)).Return(nil)
		m.creditRepo.On("Record", ctx, mock.Anything).Return(nil)
		m.publisher.On("Publish", mock.MatchedBy(func(event events.Event) bool {
			e, ok := event.(events.CreditChangeEvent)
			return ok && e.ClientID == client.ID && e.ChangeAmount.Equal(decimal.NewFromInt(50))
		})).Return()
		m.uow.On("Commit").Return(nil)

		entry, err := service.GrantCredits(ctx, client.ID, decimal.NewFromInt(50), models.CreditReasonAdminGrant, map[string]any{"granted_by": int64(111)})

		assert.NoError(t, err)
		assert.True(t, entry.BalanceBefore.Equal(decimal.NewFromInt(200)))
		assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, models.CreditReasonAdminGrant, entry.Reason)
		m.clientRepo.AssertExpectations(t)
		m.creditRepo.AssertExpectations(t)
		m.uow.AssertExpectations(t)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		service, m := createTestCreditService()

		_, err := service.GrantCredits(ctx, 10, decimal.Zero, models.CreditReasonAdminGrant, nil)
		assert.Error(t, err)

		_, err = service.GrantCredits(ctx, 10, decimal.NewFromInt(-5), models.CreditReasonAdminGrant, nil)
		assert.Error(t, err)

		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("unknown client", func(t *testing.T) {
		service, m := createTestCreditService()

		m.clientRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

		_, err := service.GrantCredits(ctx, 99, decimal.NewFromInt(50), models.CreditReasonAdminGrant, nil)

		assert.Error(t, err)
		m.clientRepo.AssertNotCalled(t, "AddCredits", mock.Anything, mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
	})
}

func TestVerifyLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("balance matches ledger sum", func(t *testing.T) {
		service, m := createTestCreditService()

		client := fundedClient(10, 300)
		m.clientRepo.On("GetByID", ctx, client.ID).Return(client, nil)
		m.creditRepo.On("SumByClient", ctx, client.ID).Return(decimal.NewFromInt(300), nil)

		consistent, err := service.VerifyLedger(ctx, client.ID)

		assert.NoError(t, err)
		assert.True(t, consistent)
	})

	t.Run("detects drift", func(t *testing.T) {
		service, m := createTestCreditService()

		client := fundedClient(10, 300)
		m.clientRepo.On("GetByID", ctx, client.ID).Return(client, nil)
		m.creditRepo.On("SumByClient", ctx, client.ID).Return(decimal.NewFromInt(250), nil)

		consistent, err := service.VerifyLedger(ctx, client.ID)

		assert.NoError(t, err)
		assert.False(t, consistent)
	})
}

func TestGetLedger(t *testing.T) {
	ctx := context.Background()
	service, m := createTestCreditService()

	entries := []*models.CreditTransaction{
		{ID: 1, ClientID: 10, Amount: decimal.NewFromInt(-100)},
		{ID: 2, ClientID: 10, Amount: decimal.NewFromInt(500)},
	}
	m.creditRepo.On("GetByClient", ctx, int64(10), 50).Return(entries, nil)

	result, err := service.GetLedger(ctx, 10, 50)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestGetLedgerByDateRange(t *testing.T) {
	ctx := context.Background()
	service, m := createTestCreditService()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	entries := []*models.CreditTransaction{
		{ID: 3, ClientID: 10, Amount: decimal.NewFromInt(-100)},
	}
	m.creditRepo.On("GetByDateRange", ctx, int64(10), from, to).Return(entries, nil)

	result, err := service.GetLedgerByDateRange(ctx, 10, from, to)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	m.uow.AssertNotCalled(t, "Commit", ctx)
}
