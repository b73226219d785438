package handlers

import (
	"errors"
	"net/http"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/service"
)

// BackupHandler handles HTTP requests for the cloud backup channel.
type BackupHandler struct {
	backupService    *service.BackupService
	watchlistService *service.WatchlistService
}

// NewBackupHandler creates a new BackupHandler with the provided service
// dependencies.
func NewBackupHandler(backupService *service.BackupService, watchlistService *service.WatchlistService) *BackupHandler {
	return &BackupHandler{
		backupService:    backupService,
		watchlistService: watchlistService,
	}
}

// Push handles POST requests to upload the current watch-list to the
// configured gist.
//
// Endpoint: POST /api/backup
// Response: 204 No Content
// Error: 503 Service Unavailable when no backup is configured, 502 Bad
// Gateway when the upload fails
func (h *BackupHandler) Push(w http.ResponseWriter, r *http.Request) {
	data, err := h.watchlistService.ExportJSON()
	if err != nil {
		errorResponse := map[string]string{
			"error":  "failed to export watch-list",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse)
		return
	}

	if err := h.backupService.PutBlob(r.Context(), data); err != nil {
		respondJSON(w, backupStatus(err), map[string]string{
			"error":  "backup failed",
			"detail": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// RestoreResponse reports how many entries a restore merged in.
type RestoreResponse struct {
	Imported int `json:"imported"`
}

// Restore handles POST requests to download the backed-up watch-list and
// merge it into the local one. The merge never replaces the local list
// outright, so a restore cannot lose locally added funds.
//
// Endpoint: POST /api/backup/restore
// Response: 200 OK with RestoreResponse
// Error: 503 Service Unavailable when no backup is configured, 502 Bad
// Gateway when the download fails, 400 Bad Request for an unparsable blob
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	data, err := h.backupService.GetBlob(r.Context())
	if err != nil {
		respondJSON(w, backupStatus(err), map[string]string{
			"error":  "restore failed",
			"detail": err.Error(),
		})
		return
	}

	count, err := h.watchlistService.Import(data)
	if err != nil {
		errorResponse := map[string]string{
			"error":  "backed-up watch-list is not importable",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusBadRequest, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, RestoreResponse{Imported: count})
}

func backupStatus(err error) int {
	if errors.Is(err, apperrors.ErrBackupNotConfigured) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
