package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decksync/decksync/app/api"
	"github.com/decksync/decksync/app/cfg"
	"github.com/decksync/decksync/app/database"
	"github.com/decksync/decksync/app/github"
	"github.com/decksync/decksync/app/storage"
	syncer "github.com/decksync/decksync/app/sync"
	"github.com/decksync/decksync/app/tasks"
	"github.com/decksync/decksync/app/vault"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested.
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting DeckSync server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migration, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", migration.Version, "dirty", migration.Dirty)

	sourceRepo := database.NewSourceRepository(db)
	itemRepo := database.NewItemRepository(db)
	assetRepo := database.NewAssetRepository(db)

	tokenVault, err := vault.New(appCfg.EncryptionKey)
	if err != nil {
		slog.Error("Failed to initialize credential vault", "error", err)
		os.Exit(1)
	}

	store, err := storage.New(context.Background(), appCfg.S3Endpoint, appCfg.S3Region,
		appCfg.S3Bucket, appCfg.S3AccessKey, appCfg.S3SecretKey)
	if err != nil {
		slog.Error("Failed to initialize object store", "error", err)
		os.Exit(1)
	}

	client := github.NewClient(appCfg.UserAgent)
	s := syncer.NewSyncer(sourceRepo, itemRepo, assetRepo, client, store, tokenVault, appCfg.WorkerCount)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "sweep_interval_seconds", appCfg.SweepInterval)
	scheduler := tasks.NewScheduler(sourceRepo, s)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(sourceRepo, itemRepo, assetRepo, s, store,
		appCfg.JWTSecret, appCfg.SchedulerKey)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
