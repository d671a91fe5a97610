package bet

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount  = errors.New("bet amount must be between 1 and 5")
	ErrNegativeWin    = errors.New("provider reported a negative win amount")
	ErrAlreadySettled = errors.New("bet is already settled")
)

// Bet amount bounds, in whole provider credits
const (
	MinAmount = 1
	MaxAmount = 5
)

// Status describes where a bet is in its lifecycle
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusLost      Status = "lost"
)

// Bet is a wager placed with the provider and mirrored locally.
// Status moves pending -> completed|lost exactly once; after CompletedAt is
// set the record is immutable.
type Bet struct {
	ID            uuid.UUID  `json:"id"`
	UserID        int64      `json:"user_id"`
	ExternalBetID int64      `json:"external_bet_id"` // Bet identifier on the provider side
	Amount        int64      `json:"amount"`          // Fixed at creation
	Status        Status     `json:"status"`
	WinAmount     int64      `json:"win_amount"` // win for completed, -amount for lost, 0 while pending
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ValidateAmount checks the domain's bet amount bounds
func ValidateAmount(amount int64) error {
	if amount < MinAmount || amount > MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}

// NewBet creates a pending bet for a wager accepted by the provider
func NewBet(userID int64, externalBetID int64, amount int64) (*Bet, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	return &Bet{
		ID:            uuid.New(),
		UserID:        userID,
		ExternalBetID: externalBetID,
		Amount:        amount,
		Status:        StatusPending,
		WinAmount:     0,
		CreatedAt:     time.Now(),
	}, nil
}

// Settled reports whether the bet has reached a terminal state
func (b *Bet) Settled() bool {
	return b.CompletedAt != nil
}

// Settle resolves the bet with the provider's win amount: zero means the bet
// is lost, positive means won. A negative win is rejected. Settle on an
// already-settled bet returns ErrAlreadySettled.
func (b *Bet) Settle(win int64, now time.Time) error {
	if b.Settled() {
		return ErrAlreadySettled
	}
	if win < 0 {
		return ErrNegativeWin
	}

	if win > 0 {
		b.Status = StatusCompleted
		b.WinAmount = win
	} else {
		b.Status = StatusLost
		b.WinAmount = -b.Amount
	}
	b.CompletedAt = &now
	return nil
}
