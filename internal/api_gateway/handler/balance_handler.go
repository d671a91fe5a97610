package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/betting-ledger/internal/provider"
	"github.com/betting-ledger/internal/reconcile"
)

// BalanceService is the slice of the reconciler the handler needs
type BalanceService interface {
	GetBalance(ctx context.Context, userID int64) (*reconcile.BalanceStatus, error)
	CheckBalance(ctx context.Context, userID int64) (*provider.CheckBalanceResponse, error)
	VerifyAccount(ctx context.Context, userID int64) error
	SyncAllBalances(ctx context.Context) ([]reconcile.SyncResult, error)
}

// BalanceHandler handles HTTP requests for balance and reconciliation operations
type BalanceHandler struct {
	reconciler BalanceService
	logger     *slog.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(logger *slog.Logger, reconciler BalanceService) *BalanceHandler {
	return &BalanceHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Get fetches the user's balance from the provider and stores it locally
func (h *BalanceHandler) Get(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	status, err := h.reconciler.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get balance", "user_id", userID, "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, status)
}

// Check compares the locally tracked balance against the provider and
// corrects the local record when they disagree
func (h *BalanceHandler) Check(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	result, err := h.reconciler.CheckBalance(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to check balance", "user_id", userID, "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, result)
}

// Verify confirms the user's provider credentials are accepted
func (h *BalanceHandler) Verify(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.reconciler.VerifyAccount(c.Request.Context(), userID); err != nil {
		h.logger.Error("Failed to verify account", "user_id", userID, "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, gin.H{"verified": true})
}

// SyncAll refreshes every configured user's balance from the provider
func (h *BalanceHandler) SyncAll(c *gin.Context) {
	results, err := h.reconciler.SyncAllBalances(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to sync balances", "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, results)
}
