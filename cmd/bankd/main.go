package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/retailbank-ledger/internal/api"
	"github.com/retailbank-ledger/internal/config"
	"github.com/retailbank-ledger/internal/data/mongo"
	"github.com/retailbank-ledger/internal/data/postgres"
	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/domain/alert"
	"github.com/retailbank-ledger/internal/domain/transaction"
	"github.com/retailbank-ledger/internal/engine"
	"github.com/retailbank-ledger/internal/ledger"
	"github.com/retailbank-ledger/internal/logger"
	"github.com/retailbank-ledger/internal/monitor"
	"github.com/retailbank-ledger/internal/notification"
	"github.com/retailbank-ledger/internal/platform/archiver"
	"github.com/retailbank-ledger/internal/platform/persistence"
	"github.com/retailbank-ledger/internal/store"
	"github.com/shopspring/decimal"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("bankd")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Durable backends are optional: a missing or unreachable backend means
	// the corresponding archive stays nil and the core runs in memory.
	var (
		postgresDB  *persistence.PostgresDB
		mongoDB     *persistence.MongoDB
		accountRepo account.Archive
		alertRepo   alert.Archive
		historyRepo transaction.Archive
	)

	if cfg.Postgres.Enabled() {
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Warn("PostgreSQL unavailable, continuing without durable accounts", "error", err)
			postgresDB = nil
		} else {
			accountRepo = postgres.NewAccountRepository(log, postgresDB)
			alertRepo = postgres.NewAlertRepository(log, postgresDB)
		}
	} else {
		log.Info("PostgreSQL not configured, accounts are in-memory only")
	}

	if cfg.MongoDB.Enabled() {
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Warn("MongoDB unavailable, continuing without durable history", "error", err)
			mongoDB = nil
		} else {
			historyRepo = mongo.NewTransactionRepository(log, mongoDB.Database())
		}
	} else {
		log.Info("MongoDB not configured, transaction history is in-memory only")
	}

	// Worker pool for fire-and-forget archive writes
	arch, err := archiver.New(cfg.Archiver, log)
	if err != nil {
		log.Error("Failed to initialize archiver pool", "error", err)
		os.Exit(1)
	}

	// Core components
	accounts := store.NewAccountStore(log, accountRepo, arch)
	if err := accounts.LoadFromArchive(appCtx); err != nil {
		log.Warn("Failed to restore accounts from archive", "error", err)
	}
	txLog := ledger.New(log, historyRepo, arch)

	// Notification channel: Kafka when configured, simulated email otherwise
	var notifier notification.Notifier
	var kafkaNotifier *notification.KafkaNotifier
	if cfg.Kafka.Enabled() {
		kafkaNotifier, err = notification.NewKafkaNotifier(log, &cfg.Kafka)
		if err != nil {
			log.Warn("Kafka unavailable, falling back to simulated email", "error", err)
		}
	}
	if kafkaNotifier != nil {
		notifier = kafkaNotifier
	} else {
		notifier = notification.NewLogNotifier(log)
	}

	balanceMonitor := monitor.New(log, cfg.Alerts, accounts, notifier, alertRepo, arch)
	balanceMonitor.Start()

	ledgerEngine := engine.New(log, accounts, txLog, decimal.NewFromFloat(cfg.Transactions.MaxAmount))
	ledgerEngine.SetOverdraftAlerter(balanceMonitor)

	// Initialize REST server
	server := api.NewServer(log, cfg, ledgerEngine, balanceMonitor)
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

	// Graceful shutdown sequence: drain HTTP, stop the monitor, release the
	// archiver, then close external connections.
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	balanceMonitor.Stop()
	arch.Close()

	if kafkaNotifier != nil {
		if err = kafkaNotifier.Close(); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}

	if postgresDB != nil {
		postgresDB.Close()
	}
	if mongoDB != nil {
		if err = mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
