package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/betting-ledger/internal/domain/credential"
	"github.com/betting-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// CredentialRepository implements the credential.Repository interface for PostgreSQL
type CredentialRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCredentialRepository creates a new PostgreSQL credential repository
func NewCredentialRepository(logger *slog.Logger, db *persistence.PostgresDB) credential.Repository {
	return &CredentialRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new provider credential
func (r *CredentialRepository) Create(ctx context.Context, cred *credential.Credential) error {
	query := `
		INSERT INTO provider_accounts (user_id, external_id, secret_key, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.querier.Exec(ctx, query,
		cred.UserID,
		cred.ExternalID,
		cred.SecretKey,
		cred.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create provider credential", "user_id", cred.UserID, "error", err)
		return fmt.Errorf("failed to create provider credential: %w", err)
	}

	return nil
}

// GetByUserID retrieves the user's provider credential
func (r *CredentialRepository) GetByUserID(ctx context.Context, userID int64) (*credential.Credential, error) {
	query := `
		SELECT user_id, external_id, secret_key, created_at
		FROM provider_accounts
		WHERE user_id = $1
	`

	var cred credential.Credential
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&cred.UserID,
		&cred.ExternalID,
		&cred.SecretKey,
		&cred.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credential.ErrCredentialNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get provider credential", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get provider credential: %w", err)
	}

	return &cred, nil
}

// ListUserIDs returns every user with a provider account, in user ID order
func (r *CredentialRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT user_id
		FROM provider_accounts
		ORDER BY user_id ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list provider account user IDs", "error", err)
		return nil, fmt.Errorf("failed to list provider account user IDs: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID row: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user ID rows: %w", err)
	}

	return userIDs, nil
}
