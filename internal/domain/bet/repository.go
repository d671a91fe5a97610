package bet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines bet persistence operations
type Repository interface {
	Create(ctx context.Context, b *Bet) error

	// GetByID scopes the lookup to the owning user and returns
	// ErrBetNotFound when no matching bet exists.
	GetByID(ctx context.Context, userID int64, id uuid.UUID) (*Bet, error)

	GetByExternalID(ctx context.Context, userID int64, externalBetID int64) (*Bet, error)

	ListByUser(ctx context.Context, userID int64) ([]*Bet, error)

	Update(ctx context.Context, b *Bet) error

	WithTx(tx pgx.Tx) Repository
}

// ErrBetNotFound indicates no bet matches the given user and ID
type ErrBetNotFound struct {
	BetID uuid.UUID
}

func (e ErrBetNotFound) Error() string {
	return "bet not found: " + e.BetID.String()
}

// Is implements the errors.Is interface for ErrBetNotFound
func (e ErrBetNotFound) Is(target error) bool {
	t, ok := target.(ErrBetNotFound)
	if !ok {
		return false
	}
	if t.BetID == uuid.Nil {
		return true
	}
	return e.BetID == t.BetID
}
