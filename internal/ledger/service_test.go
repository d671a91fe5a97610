package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/betting-ledger/internal/domain/balance"
	"github.com/betting-ledger/internal/domain/transaction"
)

// fakeTxRunner invokes the transactional function directly with a nil tx,
// which the repository mocks accept.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type MockBalanceRepo struct {
	mock.Mock
}

func (m *MockBalanceRepo) GetByUserID(ctx context.Context, userID int64) (*balance.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Record), args.Error(1)
}

func (m *MockBalanceRepo) Upsert(ctx context.Context, rec *balance.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockBalanceRepo) LockForUpdate(ctx context.Context, userID int64) (*balance.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Record), args.Error(1)
}

func (m *MockBalanceRepo) Update(ctx context.Context, rec *balance.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockBalanceRepo) WithTx(tx pgx.Tx) balance.Repository {
	args := m.Called(tx)
	return args.Get(0).(balance.Repository)
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, rec *transaction.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockTransactionRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*transaction.Record, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Record), args.Error(1)
}

func (m *MockTransactionRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepo) WithTx(tx pgx.Tx) transaction.Repository {
	args := m.Called(tx)
	return args.Get(0).(transaction.Repository)
}

func newTestService(balances *MockBalanceRepo, transactions *MockTransactionRepo) *Service {
	balances.On("WithTx", mock.Anything).Return(balances).Maybe()
	transactions.On("WithTx", mock.Anything).Return(transactions).Maybe()
	return NewService(slog.Default(), &fakeTxRunner{}, balances, transactions)
}

func TestServiceSettleBet(t *testing.T) {
	betID := uuid.New()

	tests := []struct {
		name            string
		startBalance    int64
		betAmount       int64
		win             int64
		expectedBalance int64
		expectedType    transaction.Type
		expectedAmount  int64
	}{
		{
			name:            "win adds win amount",
			startBalance:    100,
			betAmount:       3,
			win:             6,
			expectedBalance: 106,
			expectedType:    transaction.TypeBetWin,
			expectedAmount:  6,
		},
		{
			name:            "loss subtracts stake",
			startBalance:    100,
			betAmount:       3,
			win:             0,
			expectedBalance: 97,
			expectedType:    transaction.TypeBetLoss,
			expectedAmount:  -3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances := &MockBalanceRepo{}
			transactions := &MockTransactionRepo{}
			svc := newTestService(balances, transactions)

			balances.On("LockForUpdate", mock.Anything, int64(7)).Return(&balance.Record{
				UserID:  7,
				Balance: tt.startBalance,
			}, nil)
			balances.On("Update", mock.Anything, mock.MatchedBy(func(rec *balance.Record) bool {
				return rec.UserID == 7 && rec.Balance == tt.expectedBalance
			})).Return(nil)
			transactions.On("Create", mock.Anything, mock.MatchedBy(func(rec *transaction.Record) bool {
				return rec.Type == tt.expectedType &&
					rec.Amount == tt.expectedAmount &&
					rec.BalanceBefore == tt.startBalance &&
					rec.BalanceAfter == tt.expectedBalance &&
					rec.BetID != nil && *rec.BetID == betID &&
					rec.BalanceAfter-rec.BalanceBefore == rec.Amount
			})).Return(nil)

			updated, err := svc.SettleBet(context.Background(), 7, betID, tt.betAmount, tt.win)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedBalance, updated.Balance)

			balances.AssertExpectations(t)
			transactions.AssertExpectations(t)
		})
	}

	t.Run("missing balance record aborts", func(t *testing.T) {
		balances := &MockBalanceRepo{}
		transactions := &MockTransactionRepo{}
		svc := newTestService(balances, transactions)

		balances.On("LockForUpdate", mock.Anything, int64(9)).
			Return(nil, balance.ErrBalanceNotFound{UserID: 9})

		_, err := svc.SettleBet(context.Background(), 9, betID, 3, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, balance.ErrBalanceNotFound{}))
		transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("transaction append failure fails the settlement", func(t *testing.T) {
		balances := &MockBalanceRepo{}
		transactions := &MockTransactionRepo{}
		svc := newTestService(balances, transactions)

		balances.On("LockForUpdate", mock.Anything, int64(7)).Return(&balance.Record{UserID: 7, Balance: 50}, nil)
		balances.On("Update", mock.Anything, mock.Anything).Return(nil)
		transactions.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		_, err := svc.SettleBet(context.Background(), 7, betID, 3, 6)
		assert.Error(t, err)
	})
}

func TestServiceReconcile(t *testing.T) {
	balances := &MockBalanceRepo{}
	transactions := &MockTransactionRepo{}
	svc := newTestService(balances, transactions)

	balances.On("LockForUpdate", mock.Anything, int64(7)).Return(&balance.Record{
		UserID:  7,
		Balance: 120,
	}, nil)
	balances.On("Update", mock.Anything, mock.MatchedBy(func(rec *balance.Record) bool {
		return rec.Balance == 95 && rec.ExternalBalance == 95
	})).Return(nil)
	transactions.On("Create", mock.Anything, mock.MatchedBy(func(rec *transaction.Record) bool {
		return rec.Type == transaction.TypeReconciliation &&
			rec.Amount == -25 &&
			rec.BalanceBefore == 120 &&
			rec.BalanceAfter == 95 &&
			rec.BetID == nil
	})).Return(nil)

	updated, err := svc.Reconcile(context.Background(), 7, 95)
	require.NoError(t, err)
	assert.Equal(t, int64(95), updated.Balance)

	balances.AssertExpectations(t)
	transactions.AssertExpectations(t)
}

func TestServiceUpsertUserBalance(t *testing.T) {
	balances := &MockBalanceRepo{}
	transactions := &MockTransactionRepo{}
	svc := newTestService(balances, transactions)

	checked := time.Now().Add(-time.Minute)
	balances.On("Upsert", mock.Anything, mock.MatchedBy(func(rec *balance.Record) bool {
		return rec.UserID == 7 && rec.Balance == 200 && rec.ExternalBalance == 200 && rec.LastCheckedAt.Equal(checked)
	})).Return(nil)

	rec, err := svc.UpsertUserBalance(context.Background(), 7, 200, 200, checked)
	require.NoError(t, err)
	assert.Equal(t, int64(200), rec.Balance)

	// No transaction record for a plain provider refresh.
	transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestServiceGetTransactions(t *testing.T) {
	balances := &MockBalanceRepo{}
	transactions := &MockTransactionRepo{}
	svc := newTestService(balances, transactions)

	records := []*transaction.Record{{ID: uuid.New(), UserID: 7}}
	transactions.On("ListByUser", mock.Anything, int64(7), 20, 40).Return(records, nil)
	transactions.On("CountByUser", mock.Anything, int64(7)).Return(int64(41), nil)

	got, total, err := svc.GetTransactions(context.Background(), 7, 3, 20)
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, int64(41), total)
}
