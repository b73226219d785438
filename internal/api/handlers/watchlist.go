package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/model"
	"github.com/fundwatch/fundwatch-backend/internal/service"
)

// importBodyLimit bounds the accepted import payload size.
const importBodyLimit = 1 << 20

// WatchlistHandler handles HTTP requests for the watch-list endpoints.
type WatchlistHandler struct {
	watchlistService *service.WatchlistService
	clock            func() time.Time
}

// NewWatchlistHandler creates a new WatchlistHandler with the provided
// service dependency.
func NewWatchlistHandler(watchlistService *service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{
		watchlistService: watchlistService,
		clock:            time.Now,
	}
}

// WatchlistResponse represents the persisted watch-list plus the corruption
// flag, so the client can warn when data may have been lost.
type WatchlistResponse struct {
	Entries []model.WatchlistEntry `json:"entries"`
	Corrupt bool                   `json:"corrupt"`
}

// List handles GET requests to retrieve the watch-list.
//
// Endpoint: GET /api/watchlist
// Response: 200 OK with WatchlistResponse
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	response := WatchlistResponse{
		Entries: h.watchlistService.Entries(),
		Corrupt: h.watchlistService.Corrupt(),
	}
	respondJSON(w, http.StatusOK, response)
}

// AddRequest represents the body of a watch-list add request.
type AddRequest struct {
	Code string `json:"code"`
}

// Add handles POST requests to append a fund to the watch-list.
//
// Endpoint: POST /api/watchlist
// Response: 201 Created with the new entry, 200 OK if the code was already present
// Error: 400 Bad Request for a malformed body or fund code
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse := map[string]string{
			"error": "invalid request body",
		}
		respondJSON(w, http.StatusBadRequest, errorResponse)
		return
	}

	entry, added, err := h.watchlistService.Add(r.Context(), req.Code)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.ErrInvalidFundCode) {
			status = http.StatusBadRequest
		}
		errorResponse := map[string]string{
			"error":  "failed to add fund",
			"detail": err.Error(),
		}
		respondJSON(w, status, errorResponse)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respondJSON(w, status, entry)
}

// Remove handles DELETE requests to drop a fund from the watch-list.
// Removing an absent code succeeds; the end state is the same.
//
// Endpoint: DELETE /api/watchlist/{code}
// Response: 204 No Content
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.watchlistService.Remove(code); err != nil {
		errorResponse := map[string]string{
			"error":  "failed to remove fund",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Values handles GET requests to estimate every watched fund.
//
// Endpoint: GET /api/watchlist/values
// Response: 200 OK with one value per entry, in watch-list order; per-fund
// failures are embedded in the row rather than failing the request
func (h *WatchlistHandler) Values(w http.ResponseWriter, r *http.Request) {
	values := h.watchlistService.Values(r.Context(), h.clock())
	respondJSON(w, http.StatusOK, values)
}

// Export handles GET requests to download the watch-list.
//
// Endpoint: GET /api/watchlist/export?format=json|csv
// Response: 200 OK with the JSON backup (default) or a CSV value report
// Error: 400 Bad Request for an unknown format
func (h *WatchlistHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	switch format {
	case "", "json":
		data, err := h.watchlistService.ExportJSON()
		if err != nil {
			errorResponse := map[string]string{
				"error":  "failed to export watch-list",
				"detail": err.Error(),
			}
			respondJSON(w, http.StatusInternalServerError, errorResponse)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="watchlist.json"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck
	case "csv":
		data, err := h.watchlistService.ExportCSV(r.Context(), h.clock())
		if err != nil {
			errorResponse := map[string]string{
				"error":  "failed to export watch-list",
				"detail": err.Error(),
			}
			respondJSON(w, http.StatusInternalServerError, errorResponse)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="watchlist.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck
	default:
		errorResponse := map[string]string{
			"error": "unknown export format",
		}
		respondJSON(w, http.StatusBadRequest, errorResponse)
	}
}

// ImportResponse reports how many entries an import processed.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// Import handles POST requests to merge a previously exported watch-list.
// Accepts the canonical record form and the legacy bare string-array form.
//
// Endpoint: POST /api/watchlist/import
// Response: 200 OK with ImportResponse
// Error: 400 Bad Request for an unparsable payload or invalid fund code
func (h *WatchlistHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, importBodyLimit))
	if err != nil {
		errorResponse := map[string]string{
			"error": "failed to read request body",
		}
		respondJSON(w, http.StatusBadRequest, errorResponse)
		return
	}

	count, err := h.watchlistService.Import(data)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.ErrInvalidImportPayload) || errors.Is(err, apperrors.ErrInvalidFundCode) {
			status = http.StatusBadRequest
		}
		errorResponse := map[string]string{
			"error":  "failed to import watch-list",
			"detail": err.Error(),
		}
		respondJSON(w, status, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, ImportResponse{Imported: count})
}
