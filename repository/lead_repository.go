package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"owldoor/database"
	"owldoor/models"
	"owldoor/service"

	"github.com/jackc/pgx/v5"
)

// LeadRepository implements the service.LeadRepository interface
type LeadRepository struct {
	q queryable
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *database.DB) *LeadRepository {
	return &LeadRepository{q: db.Pool}
}

// newLeadRepositoryWithTx creates a new lead repository with a transaction
func newLeadRepositoryWithTx(tx queryable) *LeadRepository {
	return &LeadRepository{q: tx}
}

const leadColumns = `id, name, email, phone, city, state, motivation, wants, custom_fields, stage, exclusivity, created_at, updated_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var lead models.Lead
	var wantsJSON, customJSON []byte

	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.City,
		&lead.State,
		&lead.Motivation,
		&wantsJSON,
		&customJSON,
		&lead.Stage,
		&lead.Exclusivity,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(wantsJSON) > 0 {
		if err := json.Unmarshal(wantsJSON, &lead.Wants); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lead wants: %w", err)
		}
	}
	if len(customJSON) > 0 {
		if err := json.Unmarshal(customJSON, &lead.CustomFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lead custom fields: %w", err)
		}
	}

	return &lead, nil
}

// Create inserts a new lead and fills its generated fields
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	wantsJSON, err := json.Marshal(lead.Wants)
	if err != nil {
		return fmt.Errorf("failed to marshal lead wants: %w", err)
	}
	if lead.Wants == nil {
		wantsJSON = []byte("[]")
	}
	customJSON, err := json.Marshal(lead.CustomFields)
	if err != nil {
		return fmt.Errorf("failed to marshal lead custom fields: %w", err)
	}
	if lead.CustomFields == nil {
		customJSON = []byte("{}")
	}

	query := `
		INSERT INTO leads (name, email, phone, city, state, motivation, wants, custom_fields, stage, exclusivity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.City,
		lead.State,
		lead.Motivation,
		wantsJSON,
		customJSON,
		lead.Stage,
		lead.Exclusivity,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}

// GetByID retrieves a lead by ID, nil if not found
func (r *LeadRepository) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead %d: %w", id, err)
	}

	return lead, nil
}

// GetByStage returns all leads in the given pipeline stage, oldest first.
// The ordering is stable so repeated runs see candidates in the same order.
func (r *LeadRepository) GetByStage(ctx context.Context, stage models.PipelineStage) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE stage = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to get leads in stage %s: %w", stage, err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}

	return leads, nil
}

// UpdateStage transitions a lead between pipeline stages conditionally
func (r *LeadRepository) UpdateStage(ctx context.Context, leadID int64, from, to models.PipelineStage) error {
	query := `
		UPDATE leads
		SET stage = $1, updated_at = NOW()
		WHERE id = $2 AND stage = $3
	`

	result, err := r.q.Exec(ctx, query, to, leadID, from)
	if err != nil {
		return fmt.Errorf("failed to update stage for lead %d: %w", leadID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lead %d not in stage %s: %w", leadID, from, service.ErrStageConflict)
	}

	return nil
}

// TryAcquireMatchLock takes a transaction-scoped advisory lock on the lead so
// overlapping invocations cannot double-process it. Released automatically at
// commit or rollback.
func (r *LeadRepository) TryAcquireMatchLock(ctx context.Context, leadID int64) (bool, error) {
	var acquired bool
	err := r.q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, leadID).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to acquire match lock for lead %d: %w", leadID, err)
	}
	return acquired, nil
}
