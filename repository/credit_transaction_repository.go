package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"owldoor/database"
	"owldoor/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreditTransactionRepository implements the service.CreditTransactionRepository interface
type CreditTransactionRepository struct {
	q queryable
}

// NewCreditTransactionRepository creates a new credit transaction repository
func NewCreditTransactionRepository(db *database.DB) *CreditTransactionRepository {
	return &CreditTransactionRepository{q: db.Pool}
}

// newCreditTransactionRepositoryWithTx creates a new credit transaction repository with a transaction
func newCreditTransactionRepositoryWithTx(tx queryable) *CreditTransactionRepository {
	return &CreditTransactionRepository{q: tx}
}

// Record appends a new ledger entry
func (r *CreditTransactionRepository) Record(ctx context.Context, entry *models.CreditTransaction) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}
	if entry.Metadata == nil {
		metadataJSON = []byte("{}")
	}

	query := `
		INSERT INTO credit_transactions
		(client_id, amount, balance_before, balance_after, reason, metadata, related_id, related_type)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.ClientID,
		entry.Amount.String(),
		entry.BalanceBefore.String(),
		entry.BalanceAfter.String(),
		entry.Reason,
		metadataJSON,
		entry.RelatedID,
		entry.RelatedType,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record credit transaction for client %d: %w", entry.ClientID, err)
	}

	return nil
}

const creditTransactionColumns = `id, client_id, amount::text, balance_before::text, balance_after::text, reason, metadata, related_id, related_type, created_at`

func scanCreditTransaction(rows pgx.Rows) (*models.CreditTransaction, error) {
	var entry models.CreditTransaction
	var amountStr, beforeStr, afterStr string
	var metadataJSON []byte

	err := rows.Scan(
		&entry.ID,
		&entry.ClientID,
		&amountStr,
		&beforeStr,
		&afterStr,
		&entry.Reason,
		&metadataJSON,
		&entry.RelatedID,
		&entry.RelatedType,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
	}
	if entry.BalanceBefore, err = decimal.NewFromString(beforeStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance before %q: %w", beforeStr, err)
	}
	if entry.BalanceAfter, err = decimal.NewFromString(afterStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance after %q: %w", afterStr, err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
	}

	return &entry, nil
}

// GetByClient returns ledger entries for a client, newest first
func (r *CreditTransactionRepository) GetByClient(ctx context.Context, clientID int64, limit int) ([]*models.CreditTransaction, error) {
	query := `
		SELECT ` + creditTransactionColumns + `
		FROM credit_transactions
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit transactions for client %d: %w", clientID, err)
	}
	defer rows.Close()

	return collectCreditTransactions(rows)
}

// GetByDateRange returns ledger entries within a date range
func (r *CreditTransactionRepository) GetByDateRange(ctx context.Context, clientID int64, from, to time.Time) ([]*models.CreditTransaction, error) {
	query := `
		SELECT ` + creditTransactionColumns + `
		FROM credit_transactions
		WHERE client_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit transactions for client %d in date range: %w", clientID, err)
	}
	defer rows.Close()

	return collectCreditTransactions(rows)
}

func collectCreditTransactions(rows pgx.Rows) ([]*models.CreditTransaction, error) {
	var entries []*models.CreditTransaction
	for rows.Next() {
		entry, err := scanCreditTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit transactions: %w", err)
	}

	return entries, nil
}

// SumByClient returns the sum of all ledger amounts for a client
func (r *CreditTransactionRepository) SumByClient(ctx context.Context, clientID int64) (decimal.Decimal, error) {
	var sumStr string
	query := `SELECT COALESCE(SUM(amount), 0)::text FROM credit_transactions WHERE client_id = $1`

	if err := r.q.QueryRow(ctx, query, clientID).Scan(&sumStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum credit transactions for client %d: %w", clientID, err)
	}

	sum, err := decimal.NewFromString(sumStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse ledger sum %q: %w", sumStr, err)
	}

	return sum, nil
}
