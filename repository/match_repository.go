package repository

import (
	"context"
	"fmt"
	"time"

	"owldoor/database"
	"owldoor/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MatchRepository implements the service.MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

const matchColumns = `id, lead_id, client_id, credits_charged::text, status, run_id, created_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var match models.Match
	var chargedStr string

	err := row.Scan(
		&match.ID,
		&match.LeadID,
		&match.ClientID,
		&chargedStr,
		&match.Status,
		&match.RunID,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	match.CreditsCharged, err = decimal.NewFromString(chargedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credits charged %q: %w", chargedStr, err)
	}

	return &match, nil
}

// Create inserts a new match record
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (lead_id, client_id, credits_charged, status, run_id)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		match.LeadID,
		match.ClientID,
		match.CreditsCharged.String(),
		match.Status,
		match.RunID,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match for lead %d and client %d: %w",
			match.LeadID, match.ClientID, err)
	}

	return nil
}

// ExistsForPair reports whether a match already exists for the pair
func (r *MatchRepository) ExistsForPair(ctx context.Context, leadID, clientID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM matches WHERE lead_id = $1 AND client_id = $2)`

	if err := r.q.QueryRow(ctx, query, leadID, clientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check match for lead %d and client %d: %w", leadID, clientID, err)
	}

	return exists, nil
}

// GetByClient returns matches received by a client, newest first
func (r *MatchRepository) GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches for client %d: %w", clientID, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// ListSince returns all matches created at or after the given time
func (r *MatchRepository) ListSince(ctx context.Context, since time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches since %v: %w", since, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	return matches, nil
}
