package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/api"
	"github.com/fundwatch/fundwatch-backend/internal/calendar"
	"github.com/fundwatch/fundwatch-backend/internal/config"
	"github.com/fundwatch/fundwatch-backend/internal/database"
	"github.com/fundwatch/fundwatch-backend/internal/eastmoney"
	"github.com/fundwatch/fundwatch-backend/internal/repository"
	"github.com/fundwatch/fundwatch-backend/internal/service"
	"github.com/fundwatch/fundwatch-backend/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Trading calendar for the Shanghai/Shenzhen sessions
	holidays, err := calendar.LoadHolidays(cfg.Calendar.HolidaysPath)
	if err != nil {
		log.Fatalf("Failed to load holiday calendar: %v", err)
	}
	cal := calendar.New(calendar.DefaultLocation(), holidays)

	// Upstream market-data gateway
	gateway := eastmoney.NewHTTPClient(cfg.Gateway.Timeout)

	// Create repositories and services
	snapshotRepo := repository.NewSnapshotRepository(db)
	snapshotService := service.NewSnapshotService(snapshotRepo)
	fundService := service.NewFundService(gateway, cal)
	watchlistStore := store.NewFileStore(cfg.Watchlist.Path)
	watchlistService := service.NewWatchlistService(watchlistStore, fundService, snapshotService)
	backupService, err := service.NewBackupService(cfg.Backup.GistID, cfg.Backup.Token, cfg.Backup.FernetKey)
	if err != nil {
		log.Fatalf("Failed to configure backup channel: %v", err)
	}

	// Background refresh during live sessions
	if cfg.Scheduler.Enabled {
		scheduler := service.NewScheduler(watchlistService, snapshotService, cal, cfg.Scheduler.RefreshCron)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	// Create router
	router := api.NewRouter(db, fundService, watchlistService, snapshotService, backupService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
