package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client represents a paying brokerage or team purchasing matched leads
type Client struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	CreditsBalance decimal.Decimal `db:"credits_balance" json:"credits_balance"`
	Active         bool            `db:"active" json:"active"`
	CoverageCities []string        `db:"coverage_cities" json:"coverage_cities"`
	CoverageStates []string        `db:"coverage_states" json:"coverage_states"`
	Preferences    []string        `db:"preferences" json:"preferences"`
	// CostPerMatch overrides the configured default when set
	CostPerMatch *decimal.Decimal `db:"cost_per_match" json:"cost_per_match,omitempty"`
	// Version is bumped on every balance write and guards concurrent invocations
	Version   int64     `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CoversLocation reports whether the client's declared coverage area
// intersects the given city/state
func (c *Client) CoversLocation(city, state string) bool {
	for _, s := range c.CoverageStates {
		if s == state {
			return true
		}
	}
	for _, cc := range c.CoverageCities {
		if cc == city {
			return true
		}
	}
	return false
}
