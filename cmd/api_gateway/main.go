package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/panjf2000/ants/v2"

	"github.com/betting-ledger/internal/api_gateway"
	"github.com/betting-ledger/internal/betting"
	"github.com/betting-ledger/internal/config"
	"github.com/betting-ledger/internal/data/mongo"
	"github.com/betting-ledger/internal/data/postgres"
	"github.com/betting-ledger/internal/ledger"
	"github.com/betting-ledger/internal/logger"
	"github.com/betting-ledger/internal/platform/messaging/producers"
	"github.com/betting-ledger/internal/platform/persistence"
	"github.com/betting-ledger/internal/provider"
	"github.com/betting-ledger/internal/reconcile"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka dead letter producer for failed API log writes
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}
	var deadLetter provider.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetter = dlqProducer
	}

	// Initialize repositories
	balanceRepo := postgres.NewBalanceRepository(log, postgresDB)
	betRepo := postgres.NewBetRepository(log, postgresDB)
	credentialRepo := postgres.NewCredentialRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	apiLogRepo := mongo.NewAPILogRepository(log, mongoDB.Database())

	// Initialize provider gateway
	callLog := provider.NewCallLog(log, apiLogRepo, deadLetter)
	breaker := provider.NewCircuitBreaker(cfg.Provider.BreakerCooldown)
	providerClient := provider.NewClient(log, &cfg.Provider, credentialRepo, breaker, callLog)

	// Initialize worker pool for fleet-wide balance syncs
	pool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}
	defer pool.Release()

	// Initialize services
	ledgerService := ledger.NewService(log, postgresDB, balanceRepo, transactionRepo)
	bettingManager := betting.NewManager(log, providerClient, ledgerService, betRepo)
	reconciler := reconcile.NewReconciler(log, providerClient, ledgerService, credentialRepo, pool)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, bettingManager, reconciler, ledgerService, api_gateway.HealthChecks{
		Postgres: postgresDB.Ping,
		Mongo:    mongoDB.Ping,
		Provider: providerClient.Health,
	})
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
		}
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
