package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betting-ledger/internal/api_gateway/handler"
	"github.com/betting-ledger/internal/betting"
	"github.com/betting-ledger/internal/config"
	"github.com/betting-ledger/internal/ledger"
	"github.com/betting-ledger/internal/reconcile"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// HealthChecks bundles the dependency probes exposed on /health.
type HealthChecks struct {
	Postgres handler.HealthCheck
	Mongo    handler.HealthCheck
	Provider handler.HealthCheck
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	manager *betting.Manager,
	reconciler *reconcile.Reconciler,
	ledgerService *ledger.Service,
	checks HealthChecks,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	betHandler := handler.NewBetHandler(log, manager)
	balanceHandler := handler.NewBalanceHandler(log, reconciler)
	transactionHandler := handler.NewTransactionHandler(log, ledgerService)
	healthHandler := handler.NewHealthHandler(log, checks.Postgres, checks.Mongo, checks.Provider)

	setupRouter(log, httpRouter, betHandler, balanceHandler, transactionHandler, healthHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
