package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/betting-ledger/internal/domain/bet"
	"github.com/betting-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BetRepository implements the bet.Repository interface for PostgreSQL
type BetRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBetRepository creates a new PostgreSQL bet repository
func NewBetRepository(logger *slog.Logger, db *persistence.PostgresDB) bet.Repository {
	return &BetRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *BetRepository) WithTx(tx pgx.Tx) bet.Repository {
	return &BetRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new bet
func (r *BetRepository) Create(ctx context.Context, b *bet.Bet) error {
	query := `
		INSERT INTO bets (id, user_id, external_bet_id, amount, status, win_amount, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		b.ID,
		b.UserID,
		b.ExternalBetID,
		b.Amount,
		b.Status,
		b.WinAmount,
		b.CreatedAt,
		b.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create bet", "bet_id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

// GetByID retrieves a bet scoped to its owning user
func (r *BetRepository) GetByID(ctx context.Context, userID int64, id uuid.UUID) (*bet.Bet, error) {
	query := `
		SELECT id, user_id, external_bet_id, amount, status, win_amount, created_at, completed_at
		FROM bets
		WHERE id = $1 AND user_id = $2
	`

	var b bet.Bet
	err := r.querier.QueryRow(ctx, query, id, userID).Scan(
		&b.ID,
		&b.UserID,
		&b.ExternalBetID,
		&b.Amount,
		&b.Status,
		&b.WinAmount,
		&b.CreatedAt,
		&b.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bet.ErrBetNotFound{BetID: id}
		}
		r.logger.Error("Failed to get bet", "bet_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	return &b, nil
}

// GetByExternalID retrieves a bet by its provider-side identifier
func (r *BetRepository) GetByExternalID(ctx context.Context, userID int64, externalBetID int64) (*bet.Bet, error) {
	query := `
		SELECT id, user_id, external_bet_id, amount, status, win_amount, created_at, completed_at
		FROM bets
		WHERE external_bet_id = $1 AND user_id = $2
	`

	var b bet.Bet
	err := r.querier.QueryRow(ctx, query, externalBetID, userID).Scan(
		&b.ID,
		&b.UserID,
		&b.ExternalBetID,
		&b.Amount,
		&b.Status,
		&b.WinAmount,
		&b.CreatedAt,
		&b.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bet.ErrBetNotFound{}
		}
		r.logger.Error("Failed to get bet by external ID", "external_bet_id", externalBetID, "error", err)
		return nil, fmt.Errorf("failed to get bet by external ID: %w", err)
	}

	return &b, nil
}

// ListByUser retrieves all bets for a user, oldest first
func (r *BetRepository) ListByUser(ctx context.Context, userID int64) ([]*bet.Bet, error) {
	query := `
		SELECT id, user_id, external_bet_id, amount, status, win_amount, created_at, completed_at
		FROM bets
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list bets", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	var bets []*bet.Bet
	for rows.Next() {
		var b bet.Bet
		if err := rows.Scan(
			&b.ID,
			&b.UserID,
			&b.ExternalBetID,
			&b.Amount,
			&b.Status,
			&b.WinAmount,
			&b.CreatedAt,
			&b.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bet row: %w", err)
		}
		bets = append(bets, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bet rows: %w", err)
	}

	return bets, nil
}

// Update persists a bet's settlement state
func (r *BetRepository) Update(ctx context.Context, b *bet.Bet) error {
	query := `
		UPDATE bets
		SET status = $1, win_amount = $2, completed_at = $3
		WHERE id = $4 AND user_id = $5
	`

	result, err := r.querier.Exec(ctx, query,
		b.Status,
		b.WinAmount,
		b.CompletedAt,
		b.ID,
		b.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to update bet", "bet_id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to update bet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return bet.ErrBetNotFound{BetID: b.ID}
	}

	return nil
}
