// Package reconcile keeps local balances consistent with the betting
// provider: on-demand refresh, mismatch correction, and the all-users sync
// fan-out.
package reconcile

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/betting-ledger/internal/domain/balance"
	"github.com/betting-ledger/internal/domain/credential"
	"github.com/betting-ledger/internal/provider"
	"github.com/panjf2000/ants/v2"
)

// Gateway issues signed calls to the betting provider
type Gateway interface {
	Call(ctx context.Context, method, endpoint string, userID int64, body any) (*provider.Response, error)
}

// Ledger is the slice of the balance ledger the reconciler needs
type Ledger interface {
	GetUserBalance(ctx context.Context, userID int64) (*balance.Record, error)
	UpsertUserBalance(ctx context.Context, userID int64, bal, externalBal int64, lastCheckedAt time.Time) (*balance.Record, error)
	Reconcile(ctx context.Context, userID int64, correctBalance int64) (*balance.Record, error)
}

// BalanceStatus is the provider balance as of its last update
type BalanceStatus struct {
	Balance     int64  `json:"balance"`
	LastUpdated string `json:"last_updated"` // ISO-8601
}

// SyncResult is one user's outcome of an all-users balance sync
type SyncResult struct {
	UserID  int64          `json:"user_id"`
	Balance *BalanceStatus `json:"balance,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Reconciler compares and corrects local balances against the provider
type Reconciler struct {
	gateway     Gateway
	ledger      Ledger
	credentials credential.Repository
	pool        *ants.Pool
	logger      *slog.Logger
}

// NewReconciler creates a reconciler. The worker pool bounds the sync
// fan-out; the reconciler does not own it and never releases it.
func NewReconciler(logger *slog.Logger, gateway Gateway, ledger Ledger, credentials credential.Repository, pool *ants.Pool) *Reconciler {
	return &Reconciler{
		gateway:     gateway,
		ledger:      ledger,
		credentials: credentials,
		pool:        pool,
		logger:      logger,
	}
}

type checkBalanceRequest struct {
	ExpectedBalance int64 `json:"expected_balance"`
}

// GetBalance fetches the user's balance from the provider and upserts the
// local record with it. An unparseable provider timestamp falls back to the
// current time.
func (r *Reconciler) GetBalance(ctx context.Context, userID int64) (*BalanceStatus, error) {
	resp, err := r.gateway.Call(ctx, http.MethodPost, "/balance", userID, struct{}{})
	if err != nil {
		return nil, err
	}

	var remote provider.BalanceResponse
	if err := resp.Decode(&remote); err != nil {
		return nil, &provider.UpstreamError{Endpoint: "/balance", StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}

	lastCheckedAt, err := time.Parse(time.RFC3339, remote.LastUpdated)
	if err != nil {
		lastCheckedAt = time.Now()
	}

	if _, err := r.ledger.UpsertUserBalance(ctx, userID, remote.Balance, remote.Balance, lastCheckedAt); err != nil {
		return nil, err
	}

	return &BalanceStatus{
		Balance:     remote.Balance,
		LastUpdated: lastCheckedAt.UTC().Format(time.RFC3339),
	}, nil
}

// CheckBalance asserts the local balance against the provider. When the
// provider disagrees, the local record is corrected to the provider's value
// through the ledger. The provider's comparison result is returned unchanged
// either way. Returns ErrBalanceNotFound when no local record exists.
func (r *Reconciler) CheckBalance(ctx context.Context, userID int64) (*provider.CheckBalanceResponse, error) {
	local, err := r.ledger.GetUserBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp, err := r.gateway.Call(ctx, http.MethodPost, "/check-balance", userID, checkBalanceRequest{ExpectedBalance: local.Balance})
	if err != nil {
		return nil, err
	}

	var result provider.CheckBalanceResponse
	if err := resp.Decode(&result); err != nil {
		return nil, &provider.UpstreamError{Endpoint: "/check-balance", StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}

	if !result.IsCorrect {
		r.logger.Warn("Local balance disagrees with provider",
			"user_id", userID, "local_balance", local.Balance, "correct_balance", result.CorrectBalance)
		if _, err := r.ledger.Reconcile(ctx, userID, result.CorrectBalance); err != nil {
			return nil, err
		}
	}

	return &result, nil
}

// VerifyAccount pings the provider's auth endpoint with the user's
// credential, confirming the account is provisioned correctly.
func (r *Reconciler) VerifyAccount(ctx context.Context, userID int64) error {
	_, err := r.gateway.Call(ctx, http.MethodPost, "/auth", userID, struct{}{})
	return err
}

// SyncAllBalances refreshes every configured user's balance from the
// provider through the worker pool. The result slice preserves the user
// order; a user whose refresh fails contributes an error entry without
// aborting the others.
func (r *Reconciler) SyncAllBalances(ctx context.Context) ([]SyncResult, error) {
	userIDs, err := r.credentials.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, len(userIDs))
	var wg sync.WaitGroup

	for i, userID := range userIDs {
		i, userID := i, userID
		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()
			status, err := r.GetBalance(ctx, userID)
			if err != nil {
				r.logger.Warn("Balance sync failed for user", "user_id", userID, "error", err)
				results[i] = SyncResult{UserID: userID, Error: err.Error()}
				return
			}
			results[i] = SyncResult{UserID: userID, Balance: status}
		})
		if submitErr != nil {
			wg.Done()
			results[i] = SyncResult{UserID: userID, Error: submitErr.Error()}
		}
	}

	wg.Wait()

	r.logger.Info("Balance sync completed", "users", len(userIDs))
	return results, nil
}
