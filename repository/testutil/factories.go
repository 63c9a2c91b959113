package testutil

import (
	"owldoor/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTestLead creates a match-ready lead with sensible defaults
func CreateTestLead(name, city, state string) *models.Lead {
	return &models.Lead{
		Name:        name,
		Email:       "lead@example.com",
		City:        city,
		State:       state,
		Motivation:  7,
		Wants:       []string{"buy"},
		Stage:       models.StageMatchReady,
		Exclusivity: models.ExclusivityExclusive,
	}
}

// CreateTestLeadWithStage creates a lead in a specific pipeline stage
func CreateTestLeadWithStage(name, city, state string, stage models.PipelineStage) *models.Lead {
	lead := CreateTestLead(name, city, state)
	lead.Stage = stage
	return lead
}

// CreateTestClient creates an active client covering one state
func CreateTestClient(name, state string) *models.Client {
	return &models.Client{
		Name:           name,
		Active:         true,
		CreditsBalance: decimal.NewFromInt(1000),
		CoverageStates: []string{state},
		Preferences:    []string{"buy"},
		Version:        1,
	}
}

// CreateTestClientWithBalance creates a client with a specific credit balance
func CreateTestClientWithBalance(name, state string, balance decimal.Decimal) *models.Client {
	client := CreateTestClient(name, state)
	client.CreditsBalance = balance
	return client
}

// CreateTestMatch creates a completed match record for the pair
func CreateTestMatch(leadID, clientID int64) *models.Match {
	return &models.Match{
		LeadID:         leadID,
		ClientID:       clientID,
		CreditsCharged: decimal.NewFromInt(100),
		Status:         models.MatchStatusCompleted,
		RunID:          uuid.New(),
	}
}

// CreateTestCreditTransaction creates a ledger entry with a 100-credit debit
func CreateTestCreditTransaction(clientID int64, reason models.CreditReason) *models.CreditTransaction {
	return &models.CreditTransaction{
		ClientID:      clientID,
		Amount:        decimal.NewFromInt(-100),
		BalanceBefore: decimal.NewFromInt(1000),
		BalanceAfter:  decimal.NewFromInt(900),
		Reason:        reason,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
