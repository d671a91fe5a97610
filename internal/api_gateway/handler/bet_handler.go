package handler

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/betting-ledger/internal/domain/bet"
)

// BetService is the slice of the betting manager the handler needs
type BetService interface {
	PlaceBet(ctx context.Context, userID int64, amount int64) (*bet.Bet, error)
	GetBet(ctx context.Context, userID int64, betID uuid.UUID) (*bet.Bet, error)
	GetBets(ctx context.Context, userID int64, refresh bool) ([]*bet.Bet, error)
}

// BetHandler handles HTTP requests for bet operations
type BetHandler struct {
	manager BetService
	logger  *slog.Logger
}

// NewBetHandler creates a new bet handler
func NewBetHandler(logger *slog.Logger, manager BetService) *BetHandler {
	return &BetHandler{
		manager: manager,
		logger:  logger,
	}
}

// Place creates a bet with the provider and records it locally
func (h *BetHandler) Place(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	placed, err := h.manager.PlaceBet(c.Request.Context(), userID, req.Amount)
	if err != nil {
		h.logger.Error("Failed to place bet", "user_id", userID, "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, toBetResponse(placed))
}

// Get returns a single stored bet
func (h *BetHandler) Get(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	betID, err := uuid.Parse(c.Param("betId"))
	if err != nil {
		RespondBadRequest(c, "Invalid bet ID")
		return
	}

	b, err := h.manager.GetBet(c.Request.Context(), userID, betID)
	if err != nil {
		h.logger.Error("Failed to get bet", "user_id", userID, "bet_id", betID, "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, toBetResponse(b))
}

// List returns the user's bets, refreshing pending ones unless refresh=false
func (h *BetHandler) List(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	refresh := true
	if raw := c.Query("refresh"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid refresh parameter")
			return
		}
		refresh = parsed
	}

	bets, err := h.manager.GetBets(c.Request.Context(), userID, refresh)
	if err != nil {
		h.logger.Error("Failed to list bets", "user_id", userID, "error", err)
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, toBetResponses(bets))
}
