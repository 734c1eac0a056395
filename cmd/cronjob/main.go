package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"wallet-ledger-service/internal/config"
	"wallet-ledger-service/internal/jobs"
	"wallet-ledger-service/internal/locker"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository/postgres"
	"wallet-ledger-service/internal/scheduler"
	"wallet-ledger-service/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile', 'reconcile-previous-day', 'all-daily')")
	date := flag.String("date", "", "Date to reconcile with -run-once reconcile (YYYY-MM-DD)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Wallet Ledger Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Services
	reconSvc := service.NewReconciliationService(
		store.TransactionRepository,
		store.ExternalTransactionRepository,
		store.ReconciliationRepository,
		locker.New(),
		cfg.Reconciliation.HistoryDays,
	)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Services{Reconciliation: reconSvc}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce, *date)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "next_run", cronScheduler.NextRun())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName, date string) {
	switch jobName {
	case "reconcile":
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			logger.Error("Invalid or missing -date", "date", date, "error", err)
			fmt.Printf("Usage: -run-once reconcile -date YYYY-MM-DD\n")
			os.Exit(1)
		}
		jobRunner.ReconcileDate(day)
	case "reconcile-previous-day":
		jobRunner.ReconcilePreviousDay()
	case "reconciliation-status":
		jobRunner.LogReconciliationStatus()
	case "all-daily":
		jobRunner.RunAllDailyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - reconcile (requires -date YYYY-MM-DD)\n")
		fmt.Printf("  - reconcile-previous-day\n")
		fmt.Printf("  - reconciliation-status\n")
		fmt.Printf("  - all-daily\n")
		os.Exit(1)
	}
}
