package repository

import (
	"context"
	"fmt"

	"owldoor/database"
	"owldoor/events"
	"owldoor/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	leadRepo         service.LeadRepository
	clientRepo       service.ClientRepository
	matchRepo        service.MatchRepository
	missedMatchRepo  service.MissedMatchRepository
	creditTxRepo     service.CreditTransactionRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.leadRepo = newLeadRepositoryWithTx(tx)
	u.clientRepo = newClientRepositoryWithTx(tx)
	u.matchRepo = newMatchRepositoryWithTx(tx)
	u.missedMatchRepo = newMissedMatchRepositoryWithTx(tx)
	u.creditTxRepo = newCreditTransactionRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// LeadRepository returns the lead repository for this unit of work
func (u *unitOfWork) LeadRepository() service.LeadRepository {
	if u.leadRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.leadRepo
}

// ClientRepository returns the client repository for this unit of work
func (u *unitOfWork) ClientRepository() service.ClientRepository {
	if u.clientRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.clientRepo
}

// MatchRepository returns the match repository for this unit of work
func (u *unitOfWork) MatchRepository() service.MatchRepository {
	if u.matchRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.matchRepo
}

// MissedMatchRepository returns the missed match repository for this unit of work
func (u *unitOfWork) MissedMatchRepository() service.MissedMatchRepository {
	if u.missedMatchRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.missedMatchRepo
}

// CreditTransactionRepository returns the credit ledger repository for this unit of work
func (u *unitOfWork) CreditTransactionRepository() service.CreditTransactionRepository {
	if u.creditTxRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.creditTxRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
