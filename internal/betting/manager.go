// Package betting drives a bet's lifecycle: placement with the provider,
// pending-to-settled transitions, and the ledger updates settlement implies.
package betting

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/betting-ledger/internal/domain/balance"
	"github.com/betting-ledger/internal/domain/bet"
	"github.com/betting-ledger/internal/provider"
	"github.com/google/uuid"
)

// ErrInsufficientFunds indicates the local balance cannot cover the stake
var ErrInsufficientFunds = errors.New("insufficient funds to place bet")

// Gateway issues signed calls to the betting provider
type Gateway interface {
	Call(ctx context.Context, method, endpoint string, userID int64, body any) (*provider.Response, error)
}

// Ledger is the slice of the balance ledger the manager needs
type Ledger interface {
	GetUserBalance(ctx context.Context, userID int64) (*balance.Record, error)
	SettleBet(ctx context.Context, userID int64, betID uuid.UUID, betAmount, win int64) (*balance.Record, error)
}

// SettleFunc resolves a pending bet's outcome
type SettleFunc func(ctx context.Context, userID int64, b *bet.Bet) (*bet.Bet, error)

// Manager owns bet creation and state transitions
type Manager struct {
	gateway Gateway
	ledger  Ledger
	bets    bet.Repository
	logger  *slog.Logger

	// settle is held as an explicit capability so bulk operations and
	// placement reuse the same settlement path; tests may substitute it.
	settle SettleFunc
}

// NewManager creates a bet lifecycle manager
func NewManager(logger *slog.Logger, gateway Gateway, ledger Ledger, bets bet.Repository) *Manager {
	m := &Manager{
		gateway: gateway,
		ledger:  ledger,
		bets:    bets,
		logger:  logger,
	}
	m.settle = m.RefreshBet
	return m
}

type placeBetRequest struct {
	Bet int64 `json:"bet"`
}

type refreshBetRequest struct {
	BetID int64 `json:"bet_id"`
}

// PlaceBet validates the stake, places the bet with the provider, and
// records it locally as pending. A settlement attempt follows immediately,
// but its failure never fails the placement; the caller always receives the
// bet as it existed right after creation, so a pending view is stable and
// later reads observe the settled state.
func (m *Manager) PlaceBet(ctx context.Context, userID int64, amount int64) (*bet.Bet, error) {
	if err := bet.ValidateAmount(amount); err != nil {
		return nil, err
	}

	rec, err := m.ledger.GetUserBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, balance.ErrBalanceNotFound{}) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	if rec.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	resp, err := m.gateway.Call(ctx, http.MethodPost, "/bet", userID, placeBetRequest{Bet: amount})
	if err != nil {
		return nil, err
	}

	var placed provider.PlaceBetResponse
	if err := resp.Decode(&placed); err != nil {
		return nil, &provider.UpstreamError{Endpoint: "/bet", StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}

	b, err := bet.NewBet(userID, placed.BetID, amount)
	if err != nil {
		return nil, err
	}
	if err := m.bets.Create(ctx, b); err != nil {
		return nil, err
	}

	m.logger.Info("Bet placed", "user_id", userID, "bet_id", b.ID.String(),
		"external_bet_id", b.ExternalBetID, "amount", amount)

	// Snapshot before settlement so the caller sees the pending record.
	created := *b

	if _, err := m.settle(ctx, userID, b); err != nil {
		m.logger.Warn("Settlement after placement failed, bet stays pending",
			"user_id", userID, "bet_id", b.ID.String(), "error", err)
	}

	return &created, nil
}

// RefreshBet resolves a pending bet against the provider. A settled bet is
// returned unchanged without any outbound call or ledger mutation, making
// refresh idempotent. A zero win settles the bet as lost, a positive win as
// completed; the ledger is updated with the same outcome.
func (m *Manager) RefreshBet(ctx context.Context, userID int64, b *bet.Bet) (*bet.Bet, error) {
	if b.Settled() {
		return b, nil
	}

	resp, err := m.gateway.Call(ctx, http.MethodPost, "/win", userID, refreshBetRequest{BetID: b.ExternalBetID})
	if err != nil {
		return nil, err
	}

	var win provider.WinResponse
	if err := resp.Decode(&win); err != nil {
		return nil, &provider.UpstreamError{Endpoint: "/win", StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}

	if err := b.Settle(win.Win, time.Now()); err != nil {
		return nil, err
	}

	if err := m.bets.Update(ctx, b); err != nil {
		return nil, err
	}

	if _, err := m.ledger.SettleBet(ctx, userID, b.ID, b.Amount, win.Win); err != nil {
		return nil, err
	}

	m.logger.Info("Bet settled", "user_id", userID, "bet_id", b.ID.String(),
		"status", b.Status, "win_amount", b.WinAmount)

	return b, nil
}

// GetBet returns the user's bet or ErrBetNotFound
func (m *Manager) GetBet(ctx context.Context, userID int64, betID uuid.UUID) (*bet.Bet, error) {
	return m.bets.GetByID(ctx, userID, betID)
}

// GetBets lists the user's bets. With refresh set, each pending bet is
// settled against the provider first; a bet whose refresh fails is returned
// in its stored state, so one provider failure never fails the listing.
func (m *Manager) GetBets(ctx context.Context, userID int64, refresh bool) ([]*bet.Bet, error) {
	bets, err := m.bets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !refresh {
		return bets, nil
	}

	result := make([]*bet.Bet, len(bets))
	for i, b := range bets {
		refreshed, err := m.settle(ctx, userID, b)
		if err != nil {
			m.logger.Warn("Failed to refresh bet during listing",
				"user_id", userID, "bet_id", b.ID.String(), "error", err)
			result[i] = b
			continue
		}
		result[i] = refreshed
	}
	return result, nil
}
