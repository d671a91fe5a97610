package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"

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
	cfg, err := config.LoadConfig("balance_reconciler")
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
	credentialRepo := postgres.NewCredentialRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	apiLogRepo := mongo.NewAPILogRepository(log, mongoDB.Database())

	// Initialize provider gateway
	callLog := provider.NewCallLog(log, apiLogRepo, deadLetter)
	breaker := provider.NewCircuitBreaker(cfg.Provider.BreakerCooldown)
	providerClient := provider.NewClient(log, &cfg.Provider, credentialRepo, breaker, callLog)

	// Initialize worker pool for balance sync fan-out
	pool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}
	defer pool.Release()

	// Initialize services
	ledgerService := ledger.NewService(log, postgresDB, balanceRepo, transactionRepo)
	reconciler := reconcile.NewReconciler(log, providerClient, ledgerService, credentialRepo, pool)

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	log.Info("Balance reconciler started", "interval", cfg.Sync.Interval)

	ticker := time.NewTicker(cfg.Sync.Interval)
	defer ticker.Stop()

	// Run one sync pass immediately, then on every tick until shutdown
	runSync(appCtx, log, reconciler)

loop:
	for {
		select {
		case <-ticker.C:
			runSync(appCtx, log, reconciler)
		case <-quit:
			log.Info("Shutdown signal received")
			break loop
		}
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	postgresDB.Close()

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
		}
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	log.Info("Reconciler shutdown completed")
}

func runSync(ctx context.Context, log *slog.Logger, reconciler *reconcile.Reconciler) {
	start := time.Now()
	results, err := reconciler.SyncAllBalances(ctx)
	if err != nil {
		log.Error("Balance sync pass failed", "error", err)
		return
	}

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}

	log.Info("Balance sync pass completed",
		"users", len(results),
		"failed", failed,
		"duration", time.Since(start),
	)
}
