package balance

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines balance record persistence operations
type Repository interface {
	// GetByUserID returns ErrBalanceNotFound when no record exists.
	GetByUserID(ctx context.Context, userID int64) (*Record, error)

	// Upsert creates or replaces the record for rec.UserID. Idempotent.
	Upsert(ctx context.Context, rec *Record) error

	// LockForUpdate acquires a row lock on the user's balance record.
	// Must be called inside a transaction; it serializes concurrent
	// settlements and reconciliations for the same user.
	LockForUpdate(ctx context.Context, userID int64) (*Record, error)

	Update(ctx context.Context, rec *Record) error

	WithTx(tx pgx.Tx) Repository
}
