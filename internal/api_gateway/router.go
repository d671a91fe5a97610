package api_gateway

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/betting-ledger/internal/api_gateway/handler"
	"github.com/betting-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	betHandler *handler.BetHandler,
	balanceHandler *handler.BalanceHandler,
	transactionHandler *handler.TransactionHandler,
	healthHandler *handler.HealthHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Per-user operations
		users := v1.Group("/users/:id")
		{
			users.POST("/bets", betHandler.Place)
			users.GET("/bets", betHandler.List)
			users.GET("/bets/:betId", betHandler.Get)
			users.GET("/balance", balanceHandler.Get)
			users.POST("/balance/check", balanceHandler.Check)
			users.POST("/verify", balanceHandler.Verify)
			users.GET("/transactions", transactionHandler.List)
		}

		// Fleet-wide operations
		v1.POST("/balances/sync", balanceHandler.SyncAll)
	}

	// Health check endpoint for monitoring
	r.GET("/health", healthHandler.Check)
}
