package handlers

import (
	"database/sql"
	"net/http"

	"github.com/fundwatch/fundwatch-backend/internal/database"
	"github.com/fundwatch/fundwatch-backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	db        *sql.DB
	watchlist *service.WatchlistService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *sql.DB, watchlist *service.WatchlistService) *SystemHandler {
	return &SystemHandler{
		db:        db,
		watchlist: watchlist,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Database         string `json:"database"`
	WatchlistCorrupt bool   `json:"watchlist_corrupt"`
	Error            string `json:"error,omitempty"`
}

// Health checks database connectivity and whether the watch-list file was
// readable on its last load.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := database.HealthCheck(h.db); err != nil {
		response := HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		}
		respondJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response := HealthResponse{
		Status:           "healthy",
		Database:         "connected",
		WatchlistCorrupt: h.watchlist.Corrupt(),
	}
	respondJSON(w, http.StatusOK, response)
}
