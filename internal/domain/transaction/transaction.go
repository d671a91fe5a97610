package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Type categorizes a ledger adjustment
type Type string

const (
	TypeBetWin         Type = "bet_win"
	TypeBetLoss        Type = "bet_loss"
	TypeReconciliation Type = "reconciliation"
)

// Record is one append-only ledger adjustment, written in the same database
// transaction as the balance change it describes. Never updated or deleted.
// Invariant for bet_win/bet_loss: BalanceAfter - BalanceBefore == Amount.
type Record struct {
	ID            uuid.UUID  `json:"id"`
	UserID        int64      `json:"user_id"`
	BetID         *uuid.UUID `json:"bet_id,omitempty"` // Nil for reconciliation adjustments
	Type          Type       `json:"type"`
	Amount        int64      `json:"amount"` // Signed, in whole provider credits
	BalanceBefore int64      `json:"balance_before"`
	BalanceAfter  int64      `json:"balance_after"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"created_at"`
}
