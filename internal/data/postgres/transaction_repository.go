package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/betting-ledger/internal/domain/transaction"
	"github.com/betting-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements the transaction.Repository interface for
// PostgreSQL. The transactions table is append-only: no update or delete
// operation exists on purpose.
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a ledger adjustment record
func (r *TransactionRepository) Create(ctx context.Context, rec *transaction.Record) error {
	query := `
		INSERT INTO transactions (id, user_id, bet_id, type, amount, balance_before, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.BetID,
		rec.Type,
		rec.Amount,
		rec.BalanceBefore,
		rec.BalanceAfter,
		rec.Description,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction record", "id", rec.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}

	return nil
}

// ListByUser retrieves a page of the user's transaction records, newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*transaction.Record, error) {
	query := `
		SELECT id, user_id, bet_id, type, amount, balance_before, balance_after, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transaction records", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}
	defer rows.Close()

	var records []*transaction.Record
	for rows.Next() {
		var rec transaction.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.BetID,
			&rec.Type,
			&rec.Amount,
			&rec.BalanceBefore,
			&rec.BalanceAfter,
			&rec.Description,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}

	return records, nil
}

// CountByUser returns the total number of transaction records for a user
func (r *TransactionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE user_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.logger.Error("Failed to count transaction records", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count transaction records: %w", err)
	}

	return count, nil
}
