package transaction

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository manages ledger adjustment persistence with pagination support
type Repository interface {
	Create(ctx context.Context, rec *Record) error

	// ListByUser returns records sorted by creation time, newest first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Record, error)

	CountByUser(ctx context.Context, userID int64) (int64, error)

	WithTx(tx pgx.Tx) Repository
}
