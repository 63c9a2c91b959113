package service

import (
	"context"
	"time"

	"owldoor/events"
	"owldoor/models"

	"github.com/shopspring/decimal"
)

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	// Create inserts a new lead and fills its generated fields
	Create(ctx context.Context, lead *models.Lead) error

	// GetByID retrieves a lead by ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.Lead, error)

	// GetByStage returns all leads in the given pipeline stage, oldest first
	GetByStage(ctx context.Context, stage models.PipelineStage) ([]*models.Lead, error)

	// UpdateStage transitions a lead from one stage to another, failing with
	// ErrStageConflict if the lead is no longer in the expected stage
	UpdateStage(ctx context.Context, leadID int64, from, to models.PipelineStage) error

	// TryAcquireMatchLock takes a transaction-scoped advisory lock on the
	// lead. Returns false without waiting when a concurrent invocation holds
	// it. Only meaningful inside a unit of work transaction.
	TryAcquireMatchLock(ctx context.Context, leadID int64) (bool, error)
}

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	// Create inserts a new client and fills its generated fields
	Create(ctx context.Context, client *models.Client) error

	// GetByID retrieves a client by ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.Client, error)

	// GetActive returns all active clients ordered by ID
	GetActive(ctx context.Context) ([]*models.Client, error)

	// UpdateCriteria updates a client's coverage area, preference filters and
	// per-match cost
	UpdateCriteria(ctx context.Context, client *models.Client) error

	// Deactivate marks a client inactive. Clients are never deleted.
	Deactivate(ctx context.Context, clientID int64) error

	// AddCredits adds to a client's balance atomically and bumps its version
	AddCredits(ctx context.Context, clientID int64, amount decimal.Decimal) error

	// DeductCredits conditionally debits a client's balance. It fails with
	// ErrInsufficientCredits when the balance is below amount and with
	// ErrVersionConflict when the row changed since expectedVersion was read.
	DeductCredits(ctx context.Context, clientID int64, amount decimal.Decimal, expectedVersion int64) error
}

// MatchRepository defines the interface for match record data access
type MatchRepository interface {
	// Create inserts a new match record
	Create(ctx context.Context, match *models.Match) error

	// ExistsForPair reports whether a match already exists for the pair
	ExistsForPair(ctx context.Context, leadID, clientID int64) (bool, error)

	// GetByClient returns matches received by a client, newest first
	GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.Match, error)

	// ListSince returns all matches created at or after the given time
	ListSince(ctx context.Context, since time.Time) ([]*models.Match, error)
}

// MissedMatchRepository defines the interface for missed match bookkeeping
type MissedMatchRepository interface {
	// Create inserts a new missed match record
	Create(ctx context.Context, missed *models.MissedMatch) error

	// ExistsForPair reports whether a missed match already exists for the pair
	ExistsForPair(ctx context.Context, leadID, clientID int64) (bool, error)

	// GetByClient returns missed matches for a client, newest first
	GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.MissedMatch, error)
}

// CreditTransactionRepository defines the interface for the credit ledger
type CreditTransactionRepository interface {
	// Record appends a new ledger entry
	Record(ctx context.Context, entry *models.CreditTransaction) error

	// GetByClient returns ledger entries for a client, newest first
	GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.CreditTransaction, error)

	// GetByDateRange returns ledger entries within a date range
	GetByDateRange(ctx context.Context, clientID int64, from, to time.Time) ([]*models.CreditTransaction, error)

	// SumByClient returns the sum of all ledger amounts for a client. The
	// result must equal the client's stored balance.
	SumByClient(ctx context.Context, clientID int64) (decimal.Decimal, error)
}

// MatchService defines the interface for the automated matching engine
type MatchService interface {
	// RunAutoMatch drives one matching invocation end to end: fetch
	// match-ready leads, select candidates, execute pairs, aggregate a
	// summary. Refused with ErrNotAuthorized unless actorID holds the admin
	// capability.
	RunAutoMatch(ctx context.Context, actorID int64) (*models.BatchSummary, error)

	// IsAdmin checks if a caller can trigger matching runs
	IsAdmin(actorID int64) bool

	// ListMatchesSince returns matches created at or after the given time
	ListMatchesSince(ctx context.Context, since time.Time) ([]*models.Match, error)
}

// CreditService defines the interface for credit ledger operations
type CreditService interface {
	// GrantCredits adds credits to a client and records the ledger entry
	GrantCredits(ctx context.Context, clientID int64, amount decimal.Decimal, reason models.CreditReason, metadata map[string]any) (*models.CreditTransaction, error)

	// GetLedger returns recent ledger entries for a client
	GetLedger(ctx context.Context, clientID int64, limit int) ([]*models.CreditTransaction, error)

	// GetLedgerByDateRange returns ledger entries within [from, to)
	GetLedgerByDateRange(ctx context.Context, clientID int64, from, to time.Time) ([]*models.CreditTransaction, error)

	// VerifyLedger recomputes a client's balance from the ledger and reports
	// whether it matches the stored balance
	VerifyLedger(ctx context.Context, clientID int64) (bool, error)
}

// LeadService defines the interface for lead pipeline operations
type LeadService interface {
	// CreateLead validates and creates a new lead in the `new` stage
	CreateLead(ctx context.Context, lead *models.Lead) (*models.Lead, error)

	// GetLead retrieves a lead by ID
	GetLead(ctx context.Context, leadID int64) (*models.Lead, error)

	// GetLeadsByStage returns leads in the given stage
	GetLeadsByStage(ctx context.Context, stage models.PipelineStage) ([]*models.Lead, error)

	// MarkMatchReady transitions a lead from `new` to `match_ready`
	MarkMatchReady(ctx context.Context, leadID int64) error

	// ArchiveLead transitions a lead to `archived`
	ArchiveLead(ctx context.Context, leadID int64) error
}

// ClientService defines the interface for client management operations
type ClientService interface {
	// CreateClient creates a new client, granting the configured initial credits
	CreateClient(ctx context.Context, client *models.Client) (*models.Client, error)

	// GetClient retrieves a client by ID
	GetClient(ctx context.Context, clientID int64) (*models.Client, error)

	// UpdateMatchingCriteria updates a client's coverage and preferences
	UpdateMatchingCriteria(ctx context.Context, client *models.Client) error

	// DeactivateClient marks a client inactive
	DeactivateClient(ctx context.Context, clientID int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	LeadRepository() LeadRepository
	ClientRepository() ClientRepository
	MatchRepository() MatchRepository
	MissedMatchRepository() MissedMatchRepository
	CreditTransactionRepository() CreditTransactionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
