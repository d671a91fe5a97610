// Package ledger owns every mutation of a user's local balance. Settlement
// and reconciliation adjustments update the balance record and append a
// transaction record in one database transaction, so readers never observe
// one without the other.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/betting-ledger/internal/domain/balance"
	"github.com/betting-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxRunner executes a function inside a database transaction, rolling back
// on error or panic. Satisfied by *persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Service is the balance ledger
type Service struct {
	db           TxRunner
	balances     balance.Repository
	transactions transaction.Repository
	logger       *slog.Logger
}

// NewService creates a ledger service
func NewService(logger *slog.Logger, db TxRunner, balances balance.Repository, transactions transaction.Repository) *Service {
	return &Service{
		db:           db,
		balances:     balances,
		transactions: transactions,
		logger:       logger,
	}
}

// GetUserBalance returns the user's balance record, or ErrBalanceNotFound
func (s *Service) GetUserBalance(ctx context.Context, userID int64) (*balance.Record, error) {
	return s.balances.GetByUserID(ctx, userID)
}

// UpsertUserBalance creates or replaces the user's balance record with a
// provider-reported balance. Idempotent; used when a balance is first
// fetched or refreshed from the provider.
func (s *Service) UpsertUserBalance(ctx context.Context, userID int64, bal, externalBal int64, lastCheckedAt time.Time) (*balance.Record, error) {
	rec := &balance.Record{
		UserID:          userID,
		Balance:         bal,
		ExternalBalance: externalBal,
		LastCheckedAt:   lastCheckedAt,
		UpdatedAt:       time.Now(),
	}
	if err := s.balances.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SettleBet applies a bet outcome to the user's balance: a positive win adds
// win credits, a zero win subtracts the stake. The balance update and the
// bet_win/bet_loss transaction record commit atomically; the row lock taken
// inside the transaction serializes concurrent settlements for the same
// user. Returns ErrBalanceNotFound if the user has no balance record.
func (s *Service) SettleBet(ctx context.Context, userID int64, betID uuid.UUID, betAmount, win int64) (*balance.Record, error) {
	var updated *balance.Record

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		balances := s.balances.WithTx(tx)
		transactions := s.transactions.WithTx(tx)

		current, err := balances.LockForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		var (
			newBalance  int64
			txType      transaction.Type
			amount      int64
			description string
		)
		if win > 0 {
			newBalance = current.Balance + win
			txType = transaction.TypeBetWin
			amount = win
			description = fmt.Sprintf("Win for bet #%s", betID)
		} else {
			newBalance = current.Balance - betAmount
			txType = transaction.TypeBetLoss
			amount = -betAmount
			description = fmt.Sprintf("Loss for bet #%s", betID)
		}

		now := time.Now()
		rec := &balance.Record{
			UserID:          userID,
			Balance:         newBalance,
			ExternalBalance: newBalance,
			LastCheckedAt:   now,
			UpdatedAt:       now,
		}
		if err := balances.Update(ctx, rec); err != nil {
			return err
		}

		bet := betID
		if err := transactions.Create(ctx, &transaction.Record{
			ID:            uuid.New(),
			UserID:        userID,
			BetID:         &bet,
			Type:          txType,
			Amount:        amount,
			BalanceBefore: current.Balance,
			BalanceAfter:  newBalance,
			Description:   description,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bet settled against ledger",
		"user_id", userID, "bet_id", betID.String(), "win", win, "balance", updated.Balance)
	return updated, nil
}

// Reconcile forces the user's balance to the provider-asserted value and
// appends a reconciliation transaction recording the drift. Atomic like
// SettleBet. Returns ErrBalanceNotFound if the user has no balance record.
func (s *Service) Reconcile(ctx context.Context, userID int64, correctBalance int64) (*balance.Record, error) {
	var updated *balance.Record

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		balances := s.balances.WithTx(tx)
		transactions := s.transactions.WithTx(tx)

		current, err := balances.LockForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		now := time.Now()
		rec := &balance.Record{
			UserID:          userID,
			Balance:         correctBalance,
			ExternalBalance: correctBalance,
			LastCheckedAt:   now,
			UpdatedAt:       now,
		}
		if err := balances.Update(ctx, rec); err != nil {
			return err
		}

		if err := transactions.Create(ctx, &transaction.Record{
			ID:            uuid.New(),
			UserID:        userID,
			Type:          transaction.TypeReconciliation,
			Amount:        correctBalance - current.Balance,
			BalanceBefore: current.Balance,
			BalanceAfter:  correctBalance,
			Description:   fmt.Sprintf("Reconciliation: provider reported balance %d", correctBalance),
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("Local balance reconciled against provider",
		"user_id", userID, "balance", updated.Balance)
	return updated, nil
}

// GetTransactions returns a page of the user's ledger history, newest first,
// along with the total record count.
func (s *Service) GetTransactions(ctx context.Context, userID int64, page, perPage int) ([]*transaction.Record, int64, error) {
	offset := (page - 1) * perPage

	records, err := s.transactions.ListByUser(ctx, userID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.transactions.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
