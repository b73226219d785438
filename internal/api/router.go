package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fundwatch/fundwatch-backend/internal/api/handlers"
	custommiddleware "github.com/fundwatch/fundwatch-backend/internal/api/middleware"
	"github.com/fundwatch/fundwatch-backend/internal/config"
	"github.com/fundwatch/fundwatch-backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	db *sql.DB,
	fundService *service.FundService,
	watchlistService *service.WatchlistService,
	snapshotService *service.SnapshotService,
	backupService *service.BackupService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(db, watchlistService)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/fund", func(r chi.Router) {
			fundHandler := handlers.NewFundHandler(fundService, snapshotService)
			r.Get("/search", fundHandler.Search)
			r.Route("/{code}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateFundCode)
				r.Get("/", fundHandler.Profile)
				r.Get("/holdings", fundHandler.Holdings)
				r.Get("/estimate", fundHandler.Estimate)
				r.Get("/history", fundHandler.History)
			})
		})

		r.Route("/watchlist", func(r chi.Router) {
			watchlistHandler := handlers.NewWatchlistHandler(watchlistService)
			r.Get("/", watchlistHandler.List)
			r.Post("/", watchlistHandler.Add)
			r.Get("/values", watchlistHandler.Values)
			r.Get("/export", watchlistHandler.Export)
			r.Post("/import", watchlistHandler.Import)
			r.With(custommiddleware.ValidateFundCode).Delete("/{code}", watchlistHandler.Remove)
		})

		r.Route("/backup", func(r chi.Router) {
			backupHandler := handlers.NewBackupHandler(backupService, watchlistService)
			r.Post("/", backupHandler.Push)
			r.Post("/restore", backupHandler.Restore)
		})
	})

	return r
}
