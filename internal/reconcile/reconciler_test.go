package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/betting-ledger/internal/domain/balance"
	"github.com/betting-ledger/internal/domain/credential"
	"github.com/betting-ledger/internal/provider"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Call(ctx context.Context, method, endpoint string, userID int64, body any) (*provider.Response, error) {
	args := m.Called(ctx, method, endpoint, userID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Response), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetUserBalance(ctx context.Context, userID int64) (*balance.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Record), args.Error(1)
}

func (m *MockLedger) UpsertUserBalance(ctx context.Context, userID int64, bal, externalBal int64, lastCheckedAt time.Time) (*balance.Record, error) {
	args := m.Called(ctx, userID, bal, externalBal, lastCheckedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Record), args.Error(1)
}

func (m *MockLedger) Reconcile(ctx context.Context, userID int64, correctBalance int64) (*balance.Record, error) {
	args := m.Called(ctx, userID, correctBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Record), args.Error(1)
}

type MockCredentialRepo struct {
	mock.Mock
}

func (m *MockCredentialRepo) Create(ctx context.Context, cred *credential.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepo) GetByUserID(ctx context.Context, userID int64) (*credential.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credential.Credential), args.Error(1)
}

func (m *MockCredentialRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func jsonResponse(body string) *provider.Response {
	return &provider.Response{StatusCode: http.StatusOK, Body: []byte(body)}
}

func newTestReconciler(t *testing.T, gateway *MockGateway, ledger *MockLedger, credentials *MockCredentialRepo) *Reconciler {
	t.Helper()
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return NewReconciler(slog.Default(), gateway, ledger, credentials, pool)
}

func TestReconcilerGetBalance(t *testing.T) {
	t.Run("StoresProviderBalance", func(t *testing.T) {
		gateway := &MockGateway{}
		ledger := &MockLedger{}
		r := newTestReconciler(t, gateway, ledger, &MockCredentialRepo{})

		gateway.On("Call", mock.Anything, http.MethodPost, "/balance", int64(7), struct{}{}).
			Return(jsonResponse(`{"balance":150,"last_updated":"2026-08-30T10:00:00Z"}`), nil)

		reported := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
		ledger.On("UpsertUserBalance", mock.Anything, int64(7), int64(150), int64(150), reported).
			Return(&balance.Record{UserID: 7, Balance: 150}, nil)

		status, err := r.GetBalance(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(150), status.Balance)
		assert.Equal(t, "2026-08-30T10:00:00Z", status.LastUpdated)

		ledger.AssertExpectations(t)
	})

	t.Run("UnparseableTimestampFallsBackToNow", func(t *testing.T) {
		gateway := &MockGateway{}
		ledger := &MockLedger{}
		r := newTestReconciler(t, gateway, ledger, &MockCredentialRepo{})

		gateway.On("Call", mock.Anything, http.MethodPost, "/balance", int64(7), struct{}{}).
			Return(jsonResponse(`{"balance":150,"last_updated":"not-a-time"}`), nil)

		before := time.Now()
		ledger.On("UpsertUserBalance", mock.Anything, int64(7), int64(150), int64(150), mock.MatchedBy(func(ts time.Time) bool {
			return !ts.Before(before)
		})).Return(&balance.Record{UserID: 7, Balance: 150}, nil)

		status, err := r.GetBalance(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(150), status.Balance)
	})

	t.Run("ProviderFailurePropagates", func(t *testing.T) {
		gateway := &MockGateway{}
		ledger := &MockLedger{}
		r := newTestReconciler(t, gateway, ledger, &MockCredentialRepo{})

		gateway.On("Call", mock.Anything, http.MethodPost, "/balance", int64(7), struct{}{}).
			Return(nil, provider.ErrCircuitOpen)

		_, err := r.GetBalance(context.Background(), 7)
		assert.ErrorIs(t, err, provider.ErrCircuitOpen)
		ledger.AssertNotCalled(t, "UpsertUserBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReconcilerCheckBalance(t *testing.T) {
	t.Run("MatchingBalancePassesThrough", func(t *testing.T) {
		gateway := &MockGateway{}
		ledger := &MockLedger{}
		r := newTestReconciler(t, gateway, ledger, &MockCredentialRepo{})

		ledger.On("GetUserBalance", mock.Anything, int64(7)).Return(&balance.Record{UserID: 7, Balance: 150}, nil)
		gateway.On("Call", mock.Anything, http.MethodPost, "/check-balance", int64(7), checkBalanceRequest{ExpectedBalance: 150}).
			Return(jsonResponse(`{"is_correct":true,"balance":150}`), nil)

		result, err := r.CheckBalance(context.Background(), 7)
		require.NoError(t, err)
		assert.True(t, result.IsCorrect)

		ledger.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MismatchCorrectsLocalRecord", func(t *testing.T) {
		gateway := &MockGateway{}
		ledger := &MockLedger{}
		r := newTestReconciler(t, gateway, ledger, &MockCredentialRepo{})

		ledger.On("GetUserBalance", mock.Anything, int64(7)).Return(&balance.Record{UserID: 7, Balance: 150}, nil)
		gateway.On("Call", mock.Anything, http.MethodPost, "/check-balance", int64(7), checkBalanceRequest{ExpectedBalance: 150}).
			Return(jsonResponse(`{"is_correct":false,"message":"balance mismatch","correct_balance":120}`), nil)
		ledger.On("Reconcile", mock.Anything, int64(7), int64(120)).
			Return(&balance.Record{UserID: 7, Balance: 120}, nil)

		result, err := r.CheckBalance(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, result.IsCorrect)
		assert.Equal(t, int64(120), result.CorrectBalance)

		ledger.AssertExpectations(t)
	})

	t.Run("MissingLocalRecordFails", func(t *testing.T) {
		gateway := &MockGateway{}
		ledger := &MockLedger{}
		r := newTestReconciler(t, gateway, ledger, &MockCredentialRepo{})

		ledger.On("GetUserBalance", mock.Anything, int64(9)).
			Return(nil, balance.ErrBalanceNotFound{UserID: 9})

		_, err := r.CheckBalance(context.Background(), 9)
		assert.True(t, errors.Is(err, balance.ErrBalanceNotFound{}))
		gateway.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReconcilerVerifyAccount(t *testing.T) {
	gateway := &MockGateway{}
	r := newTestReconciler(t, gateway, &MockLedger{}, &MockCredentialRepo{})

	gateway.On("Call", mock.Anything, http.MethodPost, "/auth", int64(7), struct{}{}).
		Return(jsonResponse(`{}`), nil)

	assert.NoError(t, r.VerifyAccount(context.Background(), 7))
}

func TestReconcilerSyncAllBalances(t *testing.T) {
	t.Run("PreservesUserOrderAndIsolatesFailures", func(t *testing.T) {
		gateway := &MockGateway{}
		ledger := &MockLedger{}
		credentials := &MockCredentialRepo{}
		r := newTestReconciler(t, gateway, ledger, credentials)

		credentials.On("ListUserIDs", mock.Anything).Return([]int64{1, 2, 3}, nil)

		gateway.On("Call", mock.Anything, http.MethodPost, "/balance", int64(1), struct{}{}).
			Return(jsonResponse(`{"balance":10,"last_updated":"2026-08-30T10:00:00Z"}`), nil)
		gateway.On("Call", mock.Anything, http.MethodPost, "/balance", int64(2), struct{}{}).
			Return(nil, errors.New("provider timeout"))
		gateway.On("Call", mock.Anything, http.MethodPost, "/balance", int64(3), struct{}{}).
			Return(jsonResponse(`{"balance":30,"last_updated":"2026-08-30T10:00:00Z"}`), nil)

		ledger.On("UpsertUserBalance", mock.Anything, int64(1), int64(10), int64(10), mock.Anything).
			Return(&balance.Record{UserID: 1, Balance: 10}, nil)
		ledger.On("UpsertUserBalance", mock.Anything, int64(3), int64(30), int64(30), mock.Anything).
			Return(&balance.Record{UserID: 3, Balance: 30}, nil)

		results, err := r.SyncAllBalances(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, int64(1), results[0].UserID)
		require.NotNil(t, results[0].Balance)
		assert.Equal(t, int64(10), results[0].Balance.Balance)

		assert.Equal(t, int64(2), results[1].UserID)
		assert.Nil(t, results[1].Balance)
		assert.Equal(t, "provider timeout", results[1].Error)

		assert.Equal(t, int64(3), results[2].UserID)
		require.NotNil(t, results[2].Balance)
		assert.Equal(t, int64(30), results[2].Balance.Balance)
	})

	t.Run("NoUsersYieldsEmptyResult", func(t *testing.T) {
		credentials := &MockCredentialRepo{}
		r := newTestReconciler(t, &MockGateway{}, &MockLedger{}, credentials)

		credentials.On("ListUserIDs", mock.Anything).Return([]int64{}, nil)

		results, err := r.SyncAllBalances(context.Background())
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("ListFailureAborts", func(t *testing.T) {
		credentials := &MockCredentialRepo{}
		r := newTestReconciler(t, &MockGateway{}, &MockLedger{}, credentials)

		credentials.On("ListUserIDs", mock.Anything).Return(nil, errors.New("db down"))

		_, err := r.SyncAllBalances(context.Background())
		assert.Error(t, err)
	})
}
