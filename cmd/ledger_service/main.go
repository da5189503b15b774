package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/walletpay/ledger-core/internal/api"
	"github.com/walletpay/ledger-core/internal/config"
	"github.com/walletpay/ledger-core/internal/data/mongo"
	"github.com/walletpay/ledger-core/internal/data/postgres"
	"github.com/walletpay/ledger-core/internal/ledger"
	"github.com/walletpay/ledger-core/internal/logger"
	"github.com/walletpay/ledger-core/internal/outboxpublisher"
	"github.com/walletpay/ledger-core/internal/platform/messaging/producers"
	"github.com/walletpay/ledger-core/internal/platform/persistence"
	"github.com/walletpay/ledger-core/internal/workflow"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_service")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Wallet Ledger Service",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	chargeRuleRepo := postgres.NewChargeRuleRepository(log, postgresDB)
	exchangeRateRepo := postgres.NewExchangeRateRepository(log, postgresDB)
	reversalRepo := postgres.NewReversalRepository(log, postgresDB)
	moneyRequestRepo := postgres.NewMoneyRequestRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongo.NewArchiveRepository(log, mongoDB.Database())

	// Initialize Kafka producers
	eventProducer, err := producers.NewTransactionEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize transaction event producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured.

	// Initialize the transaction engine and workflows
	failureRecorder := ledger.NewFailureRecorder(transactionRepo, log)
	engine := ledger.NewEngine(
		postgresDB,
		accountRepo,
		transactionRepo,
		chargeRuleRepo,
		exchangeRateRepo,
		outboxRepo,
		failureRecorder,
		log,
	)
	reversalService := workflow.NewReversalService(postgresDB, reversalRepo, transactionRepo, engine, log)
	moneyRequestService := workflow.NewMoneyRequestService(postgresDB, moneyRequestRepo, accountRepo, engine, log)
	sweeper := workflow.NewExpirySweeper(&cfg.Sweeper, postgresDB, moneyRequestRepo, log)

	// Initialize the outbox publisher
	eventPublisher := outboxpublisher.NewEventPublisher(outboxRepo, archiveRepo, eventProducer, log)
	poller, err := outboxpublisher.NewPoller(
		&cfg.Outbox,
		cfg.WorkerPool.Size,
		outboxRepo,
		eventPublisher,
		dlqProducer,
		log,
	)
	if err != nil {
		log.Error("Failed to initialize outbox publisher", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server
	server := api.NewServer(log, cfg, engine, reversalService, moneyRequestService)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start HTTP server in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// Start outbox publisher in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Start expiry sweeper in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", "error", err)
	}

	poller.Shutdown()

	// Wait for all goroutines to finish
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close Kafka producers
	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing transaction event producer", "error", err)
	}
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	log.Info("Wallet Ledger Service stopped")
}
