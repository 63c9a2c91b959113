package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"owldoor/database"
	"owldoor/models"
	"owldoor/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ClientRepository implements the service.ClientRepository interface
type ClientRepository struct {
	q queryable
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *database.DB) *ClientRepository {
	return &ClientRepository{q: db.Pool}
}

// newClientRepositoryWithTx creates a new client repository with a transaction
func newClientRepositoryWithTx(tx queryable) *ClientRepository {
	return &ClientRepository{q: tx}
}

// Numeric columns travel as text so decimal values never pass through floats.
const clientColumns = `id, name, credits_balance::text, active, coverage_cities, coverage_states, preferences, cost_per_match::text, version, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var client models.Client
	var balanceStr string
	var costStr *string
	var citiesJSON, statesJSON, prefsJSON []byte

	err := row.Scan(
		&client.ID,
		&client.Name,
		&balanceStr,
		&client.Active,
		&citiesJSON,
		&statesJSON,
		&prefsJSON,
		&costStr,
		&client.Version,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	client.CreditsBalance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credits balance %q: %w", balanceStr, err)
	}
	if costStr != nil {
		cost, err := decimal.NewFromString(*costStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cost per match %q: %w", *costStr, err)
		}
		client.CostPerMatch = &cost
	}

	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{
		{citiesJSON, &client.CoverageCities},
		{statesJSON, &client.CoverageStates},
		{prefsJSON, &client.Preferences},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, fmt.Errorf("failed to unmarshal client criteria: %w", err)
			}
		}
	}

	return &client, nil
}

func marshalStringList(list []string) ([]byte, error) {
	if list == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(list)
}

// Create inserts a new client and fills its generated fields
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	citiesJSON, err := marshalStringList(client.CoverageCities)
	if err != nil {
		return fmt.Errorf("failed to marshal coverage cities: %w", err)
	}
	statesJSON, err := marshalStringList(client.CoverageStates)
	if err != nil {
		return fmt.Errorf("failed to marshal coverage states: %w", err)
	}
	prefsJSON, err := marshalStringList(client.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	var costStr *string
	if client.CostPerMatch != nil {
		s := client.CostPerMatch.String()
		costStr = &s
	}

	query := `
		INSERT INTO clients (name, credits_balance, active, coverage_cities, coverage_states, preferences, cost_per_match)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7::numeric)
		RETURNING id, version, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		client.Name,
		client.CreditsBalance.String(),
		client.Active,
		citiesJSON,
		statesJSON,
		prefsJSON,
		costStr,
	).Scan(&client.ID, &client.Version, &client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByID retrieves a client by ID, nil if not found
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client %d: %w", id, err)
	}

	return client, nil
}

// GetActive returns all active clients ordered by ID
func (r *ClientRepository) GetActive(ctx context.Context) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE active = TRUE ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return clients, nil
}

// UpdateCriteria updates a client's coverage area, preference filters and cost
func (r *ClientRepository) UpdateCriteria(ctx context.Context, client *models.Client) error {
	citiesJSON, err := marshalStringList(client.CoverageCities)
	if err != nil {
		return fmt.Errorf("failed to marshal coverage cities: %w", err)
	}
	statesJSON, err := marshalStringList(client.CoverageStates)
	if err != nil {
		return fmt.Errorf("failed to marshal coverage states: %w", err)
	}
	prefsJSON, err := marshalStringList(client.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	var costStr *string
	if client.CostPerMatch != nil {
		s := client.CostPerMatch.String()
		costStr = &s
	}

	query := `
		UPDATE clients
		SET coverage_cities = $1, coverage_states = $2, preferences = $3, cost_per_match = $4::numeric, updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query, citiesJSON, statesJSON, prefsJSON, costStr, client.ID)
	if err != nil {
		return fmt.Errorf("failed to update criteria for client %d: %w", client.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("client %d not found", client.ID)
	}

	return nil
}

// Deactivate marks a client inactive. Clients are never deleted.
func (r *ClientRepository) Deactivate(ctx context.Context, clientID int64) error {
	query := `
		UPDATE clients
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, clientID)
	if err != nil {
		return fmt.Errorf("failed to deactivate client %d: %w", clientID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("client %d not found", clientID)
	}

	return nil
}

// AddCredits adds to a client's balance atomically and bumps its version
func (r *ClientRepository) AddCredits(ctx context.Context, clientID int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE clients
		SET credits_balance = credits_balance + $1::numeric, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount.String(), clientID)
	if err != nil {
		return fmt.Errorf("failed to add credits for client %d: %w", clientID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("client %d not found", clientID)
	}

	return nil
}

// DeductCredits conditionally debits a client's balance. The version check
// serializes concurrent invocations touching the same client.
func (r *ClientRepository) DeductCredits(ctx context.Context, clientID int64, amount decimal.Decimal, expectedVersion int64) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE clients
		SET credits_balance = credits_balance - $1::numeric, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3 AND credits_balance >= $1::numeric
	`

	result, err := r.q.Exec(ctx, query, amount.String(), clientID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to deduct credits for client %d: %w", clientID, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish the three ways the guard can fail
		client, err := r.GetByID(ctx, clientID)
		if err != nil {
			return fmt.Errorf("failed to check client %d after deduct: %w", clientID, err)
		}
		if client == nil {
			return fmt.Errorf("client %d not found", clientID)
		}
		if client.Version != expectedVersion {
			return fmt.Errorf("client %d changed concurrently: %w", clientID, service.ErrVersionConflict)
		}
		return fmt.Errorf("client %d has %s, needs %s: %w",
			clientID, client.CreditsBalance, amount, service.ErrInsufficientCredits)
	}

	return nil
}
