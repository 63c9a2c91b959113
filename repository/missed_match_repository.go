package repository

import (
	"context"
	"fmt"

	"owldoor/database"
	"owldoor/models"
)

// MissedMatchRepository implements the service.MissedMatchRepository interface
type MissedMatchRepository struct {
	q queryable
}

// NewMissedMatchRepository creates a new missed match repository
func NewMissedMatchRepository(db *database.DB) *MissedMatchRepository {
	return &MissedMatchRepository{q: db.Pool}
}

// newMissedMatchRepositoryWithTx creates a new missed match repository with a transaction
func newMissedMatchRepositoryWithTx(tx queryable) *MissedMatchRepository {
	return &MissedMatchRepository{q: tx}
}

// Create inserts a new missed match record
func (r *MissedMatchRepository) Create(ctx context.Context, missed *models.MissedMatch) error {
	query := `
		INSERT INTO missed_matches (lead_id, client_id, reason)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		missed.LeadID,
		missed.ClientID,
		missed.Reason,
	).Scan(&missed.ID, &missed.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create missed match for lead %d and client %d: %w",
			missed.LeadID, missed.ClientID, err)
	}

	return nil
}

// ExistsForPair reports whether a missed match already exists for the pair
func (r *MissedMatchRepository) ExistsForPair(ctx context.Context, leadID, clientID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM missed_matches WHERE lead_id = $1 AND client_id = $2)`

	if err := r.q.QueryRow(ctx, query, leadID, clientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check missed match for lead %d and client %d: %w", leadID, clientID, err)
	}

	return exists, nil
}

// GetByClient returns missed matches for a client, newest first
func (r *MissedMatchRepository) GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.MissedMatch, error) {
	query := `
		SELECT id, lead_id, client_id, reason, created_at
		FROM missed_matches
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get missed matches for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var missed []*models.MissedMatch
	for rows.Next() {
		var m models.MissedMatch
		err := rows.Scan(&m.ID, &m.LeadID, &m.ClientID, &m.Reason, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan missed match: %w", err)
		}
		missed = append(missed, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate missed matches: %w", err)
	}

	return missed, nil
}
