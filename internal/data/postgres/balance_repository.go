// Package postgres provides PostgreSQL implementations of the domain
// repositories. Balances, bets, credentials, and the transaction ledger all
// live here so settlement can commit its writes atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/betting-ledger/internal/domain/balance"
	"github.com/betting-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// BalanceRepository implements the balance.Repository interface for PostgreSQL
type BalanceRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBalanceRepository creates a new PostgreSQL balance repository
func NewBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) balance.Repository {
	return &BalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing atomic operations
// across multiple repository calls.
func (r *BalanceRepository) WithTx(tx pgx.Tx) balance.Repository {
	return &BalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByUserID retrieves the user's balance record
func (r *BalanceRepository) GetByUserID(ctx context.Context, userID int64) (*balance.Record, error) {
	query := `
		SELECT user_id, balance, external_balance, last_checked_at, updated_at
		FROM user_balances
		WHERE user_id = $1
	`

	var rec balance.Record
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.Balance,
		&rec.ExternalBalance,
		&rec.LastCheckedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get balance record", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get balance record: %w", err)
	}

	return &rec, nil
}

// Upsert creates or replaces the user's balance record
func (r *BalanceRepository) Upsert(ctx context.Context, rec *balance.Record) error {
	query := `
		INSERT INTO user_balances (user_id, balance, external_balance, last_checked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    external_balance = EXCLUDED.external_balance,
		    last_checked_at = EXCLUDED.last_checked_at,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		rec.UserID,
		rec.Balance,
		rec.ExternalBalance,
		rec.LastCheckedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert balance record", "user_id", rec.UserID, "error", err)
		return fmt.Errorf("failed to upsert balance record: %w", err)
	}

	return nil
}

// LockForUpdate obtains a row lock on the user's balance record and returns
// its current state. Must run inside a transaction; this is what serializes
// concurrent settlements for one user.
func (r *BalanceRepository) LockForUpdate(ctx context.Context, userID int64) (*balance.Record, error) {
	query := `
		SELECT user_id, balance, external_balance, last_checked_at, updated_at
		FROM user_balances
		WHERE user_id = $1
		FOR UPDATE
	`

	var rec balance.Record
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.Balance,
		&rec.ExternalBalance,
		&rec.LastCheckedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{UserID: userID}
		}
		r.logger.Error("Failed to lock balance record", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to lock balance record: %w", err)
	}

	return &rec, nil
}

// Update replaces the user's balance record
func (r *BalanceRepository) Update(ctx context.Context, rec *balance.Record) error {
	query := `
		UPDATE user_balances
		SET balance = $1, external_balance = $2, last_checked_at = $3, updated_at = $4
		WHERE user_id = $5
	`

	result, err := r.querier.Exec(ctx, query,
		rec.Balance,
		rec.ExternalBalance,
		rec.LastCheckedAt,
		rec.UpdatedAt,
		rec.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to update balance record", "user_id", rec.UserID, "error", err)
		return fmt.Errorf("failed to update balance record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return balance.ErrBalanceNotFound{UserID: rec.UserID}
	}

	return nil
}
