package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betting-ledger/internal/domain/transaction"
)

// TransactionService is the slice of the ledger the handler needs
type TransactionService interface {
	GetTransactions(ctx context.Context, userID int64, page, perPage int) ([]*transaction.Record, int64, error)
}

// TransactionHandler handles HTTP requests for transaction history
type TransactionHandler struct {
	ledger TransactionService
	logger *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, ledgerService TransactionService) *TransactionHandler {
	return &TransactionHandler{
		ledger: ledgerService,
		logger: logger,
	}
}

// List returns the user's ledger transactions, newest first, paginated
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	page, perPage := pagination(c)

	records, total, err := h.ledger.GetTransactions(c.Request.Context(), userID, page, perPage)
	if err != nil {
		h.logger.Error("Failed to list transactions", "user_id", userID, "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, toTransactionResponses(records), page, perPage, int(total))
}
