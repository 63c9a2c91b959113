package service

import (
	"context"
	"fmt"
	"time"

	"owldoor/config"
	"owldoor/events"
	"owldoor/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type matchService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewMatchService creates a new match service
func NewMatchService(uowFactory UnitOfWorkFactory, cfg *config.Config) MatchService {
	return &matchService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// IsAdmin checks if a caller can trigger matching runs
func (s *matchService) IsAdmin(actorID int64) bool {
	for _, id := range s.cfg.AdminIDs {
		if id == actorID {
			return true
		}
	}
	return false
}

// ListMatchesSince returns matches created at or after the given time
func (s *matchService) ListMatchesSince(ctx context.Context, since time.Time) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	return matches, nil
}

func (s *matchService) matchCost(client *models.Client) decimal.Decimal {
	if client.CostPerMatch != nil {
		return *client.CostPerMatch
	}
	return s.cfg.DefaultMatchCost
}

// RunAutoMatch drives one matching invocation end to end. The caller must
// hold the admin capability; the check happens before any reads.
func (s *matchService) RunAutoMatch(ctx context.Context, actorID int64) (*models.BatchSummary, error) {
	if !s.IsAdmin(actorID) {
		return nil, ErrNotAuthorized
	}

	runID := uuid.New()
	logger := log.WithFields(log.Fields{
		"runID":   runID,
		"actorID": actorID,
	})
	logger.Info("Starting auto-match run")

	leads, clients, err := s.fetchPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matching pools: %w", err)
	}

	summary := &models.BatchSummary{RunID: runID}

	for _, lead := range leads {
		// A cancelled invocation leaves processed pairs in terminal states
		// and the rest eligible for the next run
		if ctx.Err() != nil {
			logger.WithField("remaining", len(leads)-summary.Processed).
				Warn("Auto-match run cancelled mid-batch")
			return summary, ctx.Err()
		}

		summary.Processed++

		if !LeadIsMatchable(lead) {
			logger.WithField("leadID", lead.ID).Info("Skipping lead: missing required data")
			continue
		}

		candidates := EligibleClients(lead, clients)
		if len(candidates) == 0 {
			logger.WithField("leadID", lead.ID).Debug("No eligible clients for lead")
			continue
		}

		s.processLead(ctx, logger, runID, lead, candidates, summary)
	}

	logger.WithFields(log.Fields{
		"processed": summary.Processed,
		"matched":   summary.Matched,
		"missed":    summary.Missed,
		"errors":    summary.Errors,
	}).Info("Auto-match run finished")

	return summary, nil
}

// fetchPools reads the match-ready leads and active clients in one read-only
// transaction so both pools come from a consistent snapshot
func (s *matchService) fetchPools(ctx context.Context) ([]*models.Lead, []*models.Client, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	leads, err := uow.LeadRepository().GetByStage(ctx, models.StageMatchReady)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match-ready leads: %w", err)
	}

	clients, err := uow.ClientRepository().GetActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get active clients: %w", err)
	}

	return leads, clients, nil
}

// processLead runs the executor over one lead's ordered candidate list.
// For an exclusive lead the first completed pair consumes it and the rest are
// skipped without a missed-match record or a charge.
func (s *matchService) processLead(ctx context.Context, logger *log.Entry, runID uuid.UUID, lead *models.Lead, candidates []*models.Client, summary *models.BatchSummary) {
	for _, client := range candidates {
		outcome, leadUnavailable, err := s.executePair(ctx, runID, lead, client)

		pairLogger := logger.WithFields(log.Fields{
			"leadID":   lead.ID,
			"clientID": client.ID,
			"outcome":  outcome,
		})

		switch outcome {
		case models.PairOutcomeCompleted:
			summary.Matched++
			pairLogger.Info("Match completed")
			if lead.Exclusivity == models.ExclusivityExclusive {
				// Lead consumed; remaining candidates are terminal skips
				return
			}
		case models.PairOutcomeMissed:
			summary.Missed++
			pairLogger.Info("Match missed: insufficient credits")
		case models.PairOutcomeErrored:
			// Isolated per pair; detail goes to the log, not the summary
			summary.Errors++
			pairLogger.WithError(err).Error("Pair errored, eligible for retry on next run")
		case models.PairOutcomeSkipped:
			pairLogger.Debug("Pair skipped")
			if leadUnavailable {
				// Lead consumed or locked by a concurrent run; stop here
				// rather than skip every remaining candidate individually
				return
			}
		}
	}
}

// executePair drives one (lead, client) pair through the credit check to a
// terminal state. All effects of a completed match - the match record, the
// ledger entry and the balance debit - commit as a single transaction.
// leadUnavailable reports a skip that terminates the whole lead, not just
// this pair.
func (s *matchService) executePair(ctx context.Context, runID uuid.UUID, lead *models.Lead, client *models.Client) (outcome models.PairOutcome, leadUnavailable bool, err error) {
	cost := s.matchCost(client)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return models.PairOutcomeErrored, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Serialize with overlapping invocations touching the same lead
	locked, err := uow.LeadRepository().TryAcquireMatchLock(ctx, lead.ID)
	if err != nil {
		return models.PairOutcomeErrored, false, err
	}
	if !locked {
		return models.PairOutcomeSkipped, true, nil
	}

	// Re-read the lead: an exclusive lead may have been consumed since the
	// pools were fetched
	currentLead, err := uow.LeadRepository().GetByID(ctx, lead.ID)
	if err != nil {
		return models.PairOutcomeErrored, false, err
	}
	if currentLead == nil || currentLead.Stage != models.StageMatchReady {
		return models.PairOutcomeSkipped, true, nil
	}

	// Idempotence per pair: an existing match or missed match short-circuits
	// before any write
	matched, err := uow.MatchRepository().ExistsForPair(ctx, lead.ID, client.ID)
	if err != nil {
		return models.PairOutcomeErrored, false, err
	}
	if matched {
		return models.PairOutcomeSkipped, false, nil
	}
	missed, err := uow.MissedMatchRepository().ExistsForPair(ctx, lead.ID, client.ID)
	if err != nil {
		return models.PairOutcomeErrored, false, err
	}
	if missed {
		return models.PairOutcomeSkipped, false, nil
	}

	// Fresh balance and version for the conditional debit
	currentClient, err := uow.ClientRepository().GetByID(ctx, client.ID)
	if err != nil {
		return models.PairOutcomeErrored, false, err
	}
	if currentClient == nil || !currentClient.Active {
		return models.PairOutcomeSkipped, false, nil
	}

	if currentClient.CreditsBalance.LessThan(cost) {
		outcome, err := s.recordMiss(ctx, uow, runID, lead.ID, client.ID)
		return outcome, false, err
	}

	if err := uow.ClientRepository().DeductCredits(ctx, client.ID, cost, currentClient.Version); err != nil {
		return models.PairOutcomeErrored, false, err
	}

	match := &models.Match{
		LeadID:         lead.ID,
		ClientID:       client.ID,
		CreditsCharged: cost,
		Status:         models.MatchStatusCompleted,
		RunID:          runID,
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return models.PairOutcomeErrored, false, err
	}

	relatedID := match.ID
	relatedType := models.RelatedTypeMatch
	entry := &models.CreditTransaction{
		ClientID:      client.ID,
		Amount:        cost.Neg(),
		BalanceBefore: currentClient.CreditsBalance,
		BalanceAfter:  currentClient.CreditsBalance.Sub(cost),
		Reason:        models.CreditReasonMatchCharge,
		Metadata: map[string]any{
			"lead_id": lead.ID,
			"run_id":  runID.String(),
		},
		RelatedID:   &relatedID,
		RelatedType: &relatedType,
	}
	if err := RecordCreditChange(ctx, uow, entry); err != nil {
		return models.PairOutcomeErrored, false, err
	}

	if currentLead.Exclusivity == models.ExclusivityExclusive {
		if err := uow.LeadRepository().UpdateStage(ctx, lead.ID, models.StageMatchReady, models.StageMatched); err != nil {
			return models.PairOutcomeErrored, false, err
		}
	}

	uow.EventBus().Publish(events.MatchCreatedEvent{
		MatchID:        match.ID,
		LeadID:         lead.ID,
		ClientID:       client.ID,
		CreditsCharged: cost,
		RunID:          runID,
	})

	if err := uow.Commit(); err != nil {
		return models.PairOutcomeErrored, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return models.PairOutcomeCompleted, false, nil
}

// recordMiss books the insufficient-credit outcome without touching the balance
func (s *matchService) recordMiss(ctx context.Context, uow UnitOfWork, runID uuid.UUID, leadID, clientID int64) (models.PairOutcome, error) {
	missed := &models.MissedMatch{
		LeadID:   leadID,
		ClientID: clientID,
		Reason:   models.MissReasonInsufficientCredits,
	}
	if err := uow.MissedMatchRepository().Create(ctx, missed); err != nil {
		return models.PairOutcomeErrored, err
	}

	uow.EventBus().Publish(events.MatchMissedEvent{
		MissedMatchID: missed.ID,
		LeadID:        leadID,
		ClientID:      clientID,
		Reason:        models.MissReasonInsufficientCredits,
		RunID:         runID,
	})

	if err := uow.Commit(); err != nil {
		return models.PairOutcomeErrored, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return models.PairOutcomeMissed, nil
}
