package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "wallet-ledger-service/internal/api/http"
	"wallet-ledger-service/internal/config"
	"wallet-ledger-service/internal/jobs"
	"wallet-ledger-service/internal/locker"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/notification"
	"wallet-ledger-service/internal/provider"
	"wallet-ledger-service/internal/repository/postgres"
	"wallet-ledger-service/internal/scheduler"
	"wallet-ledger-service/internal/service"
	"wallet-ledger-service/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withScheduler := flag.Bool("scheduler", false, "Also run the daily reconciliation schedule in this process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Wallet Ledger Service...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.Open(ctx, cfg.Database)
	cancel()
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize provider file archive
	archive, err := storage.NewLocalArchive(cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("Failed to initialize file archive", "error", err)
		log.Fatalf("Failed to initialize file archive: %v", err)
	}
	logger.Info("Using local file archive", "upload_dir", cfg.Storage.UploadDir)

	// Completion events
	publisher := notification.NewPublisher(
		notification.NewRepositorySink(store.EventRepository),
		cfg.Notification.Workers,
		cfg.Notification.QueueSize,
	)
	publisher.Start()

	// Initialize Services
	simulator := provider.NewSimulator(cfg.Services, provider.DefaultRandFactory)
	customerSvc := service.NewCustomerService(store.CustomerRepository)
	walletSvc := service.NewWalletService(store.WalletRepository, store.CustomerRepository, cfg.Ledger.DefaultCurrency)
	ledgerSvc := service.NewLedgerService(
		store.WalletRepository,
		store.TransactionRepository,
		store.CustomerRepository,
		simulator,
		publisher,
		cfg.Ledger.MaxRetries,
	)
	reconSvc := service.NewReconciliationService(
		store.TransactionRepository,
		store.ExternalTransactionRepository,
		store.ReconciliationRepository,
		locker.New(),
		cfg.Reconciliation.HistoryDays,
	)
	ingestSvc := service.NewIngestionService(store.ExternalTransactionRepository, archive, cfg.Reconciliation.DefaultProvider)
	exportSvc := service.NewExportService(store.ReconciliationRepository)

	// Optional in-process schedule
	var cronScheduler *scheduler.Scheduler
	if *withScheduler {
		jobRunner := jobs.NewJobRunner(&jobs.Services{Reconciliation: reconSvc}, cfg)
		cronScheduler = scheduler.NewScheduler(jobRunner)
		cronScheduler.Start()
	}

	// Set up HTTP server
	handler := httpapi.NewHandler(httpapi.Services{
		Customers:      customerSvc,
		Wallets:        walletSvc,
		Ledger:         ledgerSvc,
		Reconciliation: reconSvc,
		Ingestion:      ingestSvc,
		Export:         exportSvc,
	}, store, cfg.Server.MaxUploadSizeMB<<20)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      httpapi.NewRouter(handler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	publisher.Stop()
	logger.Info("Server stopped. Goodbye!")
}
