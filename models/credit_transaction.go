package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditReason represents the reason code of a ledger entry
type CreditReason string

const (
	CreditReasonMatchCharge     CreditReason = "match_charge"
	CreditReasonAdminGrant      CreditReason = "admin_grant"
	CreditReasonAdminAdjustment CreditReason = "admin_adjustment"
	CreditReasonInitial         CreditReason = "initial"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeMatch RelatedType = "match"
)

// CreditTransaction is one entry of the append-only credit ledger.
// The client's stored balance must always equal the sum of its entries.
type CreditTransaction struct {
	ID            int64           `db:"id" json:"id"`
	ClientID      int64           `db:"client_id" json:"client_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reason        CreditReason    `db:"reason" json:"reason"`
	Metadata      map[string]any  `db:"metadata" json:"metadata,omitempty"`
	RelatedID     *int64          `db:"related_id" json:"related_id,omitempty"`
	RelatedType   *RelatedType    `db:"related_type" json:"related_type,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
