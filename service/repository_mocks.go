package service

import (
	"context"
	"time"

	"owldoor/events"
	"owldoor/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockLeadRepository is a mock implementation of LeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) GetByStage(ctx context.Context, stage models.PipelineStage) ([]*models.Lead, error) {
	args := m.Called(ctx, stage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateStage(ctx context.Context, leadID int64, from, to models.PipelineStage) error {
	args := m.Called(ctx, leadID, from, to)
	return args.Error(0)
}

func (m *MockLeadRepository) TryAcquireMatchLock(ctx context.Context, leadID int64) (bool, error) {
	args := m.Called(ctx, leadID)
	return args.Bool(0), args.Error(1)
}

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) GetActive(ctx context.Context) ([]*models.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *MockClientRepository) UpdateCriteria(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Deactivate(ctx context.Context, clientID int64) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *MockClientRepository) AddCredits(ctx context.Context, clientID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, clientID, amount)
	return args.Error(0)
}

func (m *MockClientRepository) DeductCredits(ctx context.Context, clientID int64, amount decimal.Decimal, expectedVersion int64) error {
	args := m.Called(ctx, clientID, amount, expectedVersion)
	return args.Error(0)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) ExistsForPair(ctx context.Context, leadID, clientID int64) (bool, error) {
	args := m.Called(ctx, leadID, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListSince(ctx context.Context, since time.Time) ([]*models.Match, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

// MockMissedMatchRepository is a mock implementation of MissedMatchRepository
type MockMissedMatchRepository struct {
	mock.Mock
}

func (m *MockMissedMatchRepository) Create(ctx context.Context, missed *models.MissedMatch) error {
	args := m.Called(ctx, missed)
	return args.Error(0)
}

func (m *MockMissedMatchRepository) ExistsForPair(ctx context.Context, leadID, clientID int64) (bool, error) {
	args := m.Called(ctx, leadID, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMissedMatchRepository) GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.MissedMatch, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MissedMatch), args.Error(1)
}

// MockCreditTransactionRepository is a mock implementation of CreditTransactionRepository
type MockCreditTransactionRepository struct {
	mock.Mock
}

func (m *MockCreditTransactionRepository) Record(ctx context.Context, entry *models.CreditTransaction) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCreditTransactionRepository) GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.CreditTransaction, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreditTransaction), args.Error(1)
}

func (m *MockCreditTransactionRepository) GetByDateRange(ctx context.Context, clientID int64, from, to time.Time) ([]*models.CreditTransaction, error) {
	args := m.Called(ctx, clientID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreditTransaction), args.Error(1)
}

func (m *MockCreditTransactionRepository) SumByClient(ctx context.Context, clientID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return the instances set via SetRepositories rather than recorded calls so
// tests only assert on Begin/Commit/Rollback.
type MockUnitOfWork struct {
	mock.Mock
	leadRepo        LeadRepository
	clientRepo      ClientRepository
	matchRepo       MatchRepository
	missedMatchRepo MissedMatchRepository
	creditTxRepo    CreditTransactionRepository
	eventBus        EventPublisher
}

// SetRepositories wires the mock repositories this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	leadRepo LeadRepository,
	clientRepo ClientRepository,
	matchRepo MatchRepository,
	missedMatchRepo MissedMatchRepository,
	creditTxRepo CreditTransactionRepository,
	eventBus EventPublisher,
) {
	m.leadRepo = leadRepo
	m.clientRepo = clientRepo
	m.matchRepo = matchRepo
	m.missedMatchRepo = missedMatchRepo
	m.creditTxRepo = creditTxRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) LeadRepository() LeadRepository {
	return m.leadRepo
}

func (m *MockUnitOfWork) ClientRepository() ClientRepository {
	return m.clientRepo
}

func (m *MockUnitOfWork) MatchRepository() MatchRepository {
	return m.matchRepo
}

func (m *MockUnitOfWork) MissedMatchRepository() MissedMatchRepository {
	return m.missedMatchRepo
}

func (m *MockUnitOfWork) CreditTransactionRepository() CreditTransactionRepository {
	return m.creditTxRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
