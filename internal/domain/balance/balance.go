package balance

import (
	"strconv"
	"time"
)

// Record is the authoritative local view of a user's provider balance.
// Amounts are stored in whole provider credits. Mutated exclusively through
// the ledger service; callers never write it directly.
type Record struct {
	UserID          int64     `json:"user_id"`
	Balance         int64     `json:"balance"`          // Last value this system believes is correct
	ExternalBalance int64     `json:"external_balance"` // Last balance the provider reported
	LastCheckedAt   time.Time `json:"last_checked_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ErrBalanceNotFound indicates no local balance record exists for the user
type ErrBalanceNotFound struct {
	UserID int64
}

func (e ErrBalanceNotFound) Error() string {
	return "balance record not found for user: " + strconv.FormatInt(e.UserID, 10)
}

// Is implements the errors.Is interface for ErrBalanceNotFound
func (e ErrBalanceNotFound) Is(target error) bool {
	t, ok := target.(ErrBalanceNotFound)
	if !ok {
		return false
	}
	if t.UserID == 0 {
		return true
	}
	return e.UserID == t.UserID
}
