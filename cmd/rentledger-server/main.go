package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"rentledger/internal/amqp"
	"rentledger/internal/backup"
	"rentledger/internal/cache"
	"rentledger/internal/config"
	apphttp "rentledger/internal/http"
	"rentledger/internal/log"
	"rentledger/internal/services"
	"rentledger/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentApp})
	log.SetDefault(logger)

	logger.Info("Starting rentledger server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	// Event publishing is optional; without an AMQP URL every publish is a no-op.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(store, events)
	invoices := services.NewInvoiceService(store, events)
	analytics := services.NewAnalyticsService(store)

	scheduler := backup.NewScheduler(ledger, cfg.BackupPath, cfg.BackupDebounce)
	onChange := func() {
		analytics.Invalidate()
		scheduler.Notify()
	}
	ledger.SetOnChange(onChange)
	invoices.SetOnChange(onChange)

	cacheManager := cache.NewManager()
	analytics.RegisterCaches(cacheManager)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, invoices, analytics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}

		cacheManager.Stop()

		// Flush any pending backup before the store closes.
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("Backup flush failed", "error", err)
		}

		return ledger.Close()
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
