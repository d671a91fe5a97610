package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betting-ledger/internal/betting"
	"github.com/betting-ledger/internal/domain/balance"
	"github.com/betting-ledger/internal/domain/bet"
	"github.com/betting-ledger/internal/domain/credential"
	"github.com/betting-ledger/internal/provider"
)

// respondDomainError maps service layer errors to HTTP responses.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, bet.ErrInvalidAmount) || errors.Is(err, bet.ErrNegativeWin):
		RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, betting.ErrInsufficientFunds):
		RespondWithError(c, http.StatusBadRequest, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, bet.ErrBetNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, balance.ErrBalanceNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, credential.ErrCredentialNotFound{}),
		errors.Is(err, provider.ErrAccountNotConfigured{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, provider.ErrCircuitOpen):
		RespondServiceUnavailable(c, "Provider temporarily unavailable")
	default:
		var upstream *provider.UpstreamError
		if errors.As(err, &upstream) {
			RespondBadGateway(c, "Provider request failed")
			return
		}
		logger.Error("Unhandled service error", "error", err)
		RespondInternalError(c)
	}
}
