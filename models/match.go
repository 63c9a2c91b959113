package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchStatus represents the terminal status of a recorded match
type MatchStatus string

const (
	MatchStatusCompleted MatchStatus = "completed"
)

// Match represents a recorded successful pairing of one lead to one client.
// Matches are append-only; exactly one may exist per (lead, client) pair.
type Match struct {
	ID             int64           `db:"id" json:"id"`
	LeadID         int64           `db:"lead_id" json:"lead_id"`
	ClientID       int64           `db:"client_id" json:"client_id"`
	CreditsCharged decimal.Decimal `db:"credits_charged" json:"credits_charged"`
	Status         MatchStatus     `db:"status" json:"status"`
	RunID          uuid.UUID       `db:"run_id" json:"run_id"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// MissReason represents why a pairing opportunity was not fulfilled
type MissReason string

const (
	MissReasonInsufficientCredits MissReason = "insufficient_credits"
)

// MissedMatch represents a pairing opportunity not fulfilled, kept as an
// audit/notification record. Append-only, one per (lead, client) pair.
type MissedMatch struct {
	ID        int64      `db:"id" json:"id"`
	LeadID    int64      `db:"lead_id" json:"lead_id"`
	ClientID  int64      `db:"client_id" json:"client_id"`
	Reason    MissReason `db:"reason" json:"reason"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
