package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/model"
	"github.com/fundwatch/fundwatch-backend/internal/service"
)

// FundHandler handles HTTP requests for fund endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the fund service.
type FundHandler struct {
	fundService *service.FundService
	snapshots   *service.SnapshotService
	clock       func() time.Time
}

// NewFundHandler creates a new FundHandler with the provided service
// dependencies.
func NewFundHandler(fundService *service.FundService, snapshots *service.SnapshotService) *FundHandler {
	return &FundHandler{
		fundService: fundService,
		snapshots:   snapshots,
		clock:       time.Now,
	}
}

// Search handles GET requests to search funds by code or name substring.
//
// Endpoint: GET /api/fund/search?q=keyword
// Response: 200 OK with array of fund profiles
// Error: 400 Bad Request for an empty keyword, 502 Bad Gateway if the
// upstream provider is unreachable
func (h *FundHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		errorResponse := map[string]string{
			"error": "missing search keyword",
		}
		respondJSON(w, http.StatusBadRequest, errorResponse)
		return
	}

	results, err := h.fundService.Search(r.Context(), keyword)
	if err != nil {
		errorResponse := map[string]string{
			"error":  "fund search failed",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusBadGateway, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// Profile handles GET requests to retrieve fund metadata.
//
// Endpoint: GET /api/fund/{code}
// Response: 200 OK with the fund profile
// Error: 404 Not Found for an unknown code, 502 Bad Gateway on provider failure
func (h *FundHandler) Profile(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	profile, err := h.fundService.Profile(r.Context(), code)
	if err != nil {
		if errors.Is(err, apperrors.ErrFundNotFound) {
			errorResponse := map[string]string{
				"error": "fund not found",
			}
			respondJSON(w, http.StatusNotFound, errorResponse)
			return
		}
		errorResponse := map[string]string{
			"error":  "failed to retrieve fund",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusBadGateway, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// Holdings handles GET requests to retrieve a fund's disclosed holdings
// enriched with live quotes.
//
// Endpoint: GET /api/fund/{code}/holdings
// Response: 200 OK with the holdings report
// Error: 502 Bad Gateway if the holdings lookup fails
func (h *FundHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	report, err := h.fundService.HoldingsDetail(r.Context(), code)
	if err != nil {
		errorResponse := map[string]string{
			"error":  "failed to retrieve holdings",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusBadGateway, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// EstimateUnavailableResponse is returned when every estimation tier
// failed. Stale carries the most recent recorded snapshot, when one
// exists, so the caller can show a clearly labeled old value.
type EstimateUnavailableResponse struct {
	Error string          `json:"error"`
	Stale *model.Snapshot `json:"stale,omitempty"`
}

// Estimate handles GET requests to compute the fund's current estimated
// value via the fallback chain.
//
// Endpoint: GET /api/fund/{code}/estimate
// Response: 200 OK with the estimation result
// Error: 404 Not Found with an optional stale snapshot when no tier produced a value
func (h *FundHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	result, err := h.fundService.Estimate(r.Context(), code, h.clock())
	if err != nil {
		response := EstimateUnavailableResponse{
			Error: "no estimation available for this fund right now",
		}
		if snapshot, serr := h.snapshots.Latest(r.Context(), code); serr == nil {
			response.Stale = &snapshot
		}
		respondJSON(w, http.StatusNotFound, response)
		return
	}

	// Recording is best-effort; the estimate itself is still served.
	if _, err := h.snapshots.Record(r.Context(), result); err != nil {
		log.Printf("Failed to record snapshot for %s: %v", code, err)
	}

	respondJSON(w, http.StatusOK, result)
}

// History handles GET requests for a fund's recorded snapshot history.
//
// Endpoint: GET /api/fund/{code}/history
// Response: 200 OK with up to 100 snapshots, newest first
// Error: 500 Internal Server Error if the query fails
func (h *FundHandler) History(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	snapshots, err := h.snapshots.History(r.Context(), code, 100)
	if err != nil {
		errorResponse := map[string]string{
			"error":  "failed to retrieve snapshot history",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, snapshots)
}
