package handler

import (
	"time"

	"github.com/betting-ledger/internal/domain/bet"
	"github.com/betting-ledger/internal/domain/transaction"
)

// PlaceBetRequest is the body for placing a new bet
type PlaceBetRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// BetResponse is the API representation of a bet
type BetResponse struct {
	ID            string     `json:"id"`
	UserID        int64      `json:"user_id"`
	ExternalBetID int64      `json:"external_bet_id"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	WinAmount     int64      `json:"win_amount"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// TransactionResponse is the API representation of a ledger transaction
type TransactionResponse struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	BetID         *string   `json:"bet_id,omitempty"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func toBetResponse(b *bet.Bet) BetResponse {
	return BetResponse{
		ID:            b.ID.String(),
		UserID:        b.UserID,
		ExternalBetID: b.ExternalBetID,
		Amount:        b.Amount,
		Status:        string(b.Status),
		WinAmount:     b.WinAmount,
		CreatedAt:     b.CreatedAt,
		CompletedAt:   b.CompletedAt,
	}
}

func toBetResponses(bets []*bet.Bet) []BetResponse {
	out := make([]BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, toBetResponse(b))
	}
	return out
}

func toTransactionResponse(rec *transaction.Record) TransactionResponse {
	resp := TransactionResponse{
		ID:            rec.ID.String(),
		UserID:        rec.UserID,
		Type:          string(rec.Type),
		Amount:        rec.Amount,
		BalanceBefore: rec.BalanceBefore,
		BalanceAfter:  rec.BalanceAfter,
		Description:   rec.Description,
		CreatedAt:     rec.CreatedAt,
	}
	if rec.BetID != nil {
		id := rec.BetID.String()
		resp.BetID = &id
	}
	return resp
}

func toTransactionResponses(recs []*transaction.Record) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toTransactionResponse(rec))
	}
	return out
}
