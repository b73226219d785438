package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/calendar"
	"github.com/fundwatch/fundwatch-backend/internal/model"
	"github.com/fundwatch/fundwatch-backend/internal/repository"
	"github.com/fundwatch/fundwatch-backend/internal/service"
	"github.com/fundwatch/fundwatch-backend/internal/testutil"
)

var testZone = time.FixedZone("CST", 8*3600)

// tradingMoment is a Wednesday at 10:00, inside session hours.
var tradingMoment = time.Date(2025, 6, 4, 10, 0, 0, 0, testZone)

func setupFundHandler(t *testing.T, gateway *testutil.MockGateway) *FundHandler {
	t.Helper()

	db := testutil.SetupTestDB(t)
	snapshots := service.NewSnapshotService(repository.NewSnapshotRepository(db))
	funds := service.NewFundService(gateway, calendar.New(testZone, nil))
	handler := NewFundHandler(funds, snapshots)
	handler.clock = func() time.Time { return tradingMoment }
	return handler
}

func TestFundHandler_Search(t *testing.T) {
	t.Run("returns matching funds", func(t *testing.T) {
		handler := setupFundHandler(t, testutil.NewMockGateway())

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/fund/search", map[string]string{"q": "白酒"})
		w := httptest.NewRecorder()

		handler.Search(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var results []model.FundProfile
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&results)

		if len(results) != 1 || results[0].Code != "161725" {
			t.Errorf("Unexpected results: %+v", results)
		}
	})

	t.Run("rejects an empty keyword", func(t *testing.T) {
		handler := setupFundHandler(t, testutil.NewMockGateway())

		req := httptest.NewRequest(http.MethodGet, "/api/fund/search", nil)
		w := httptest.NewRecorder()

		handler.Search(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("returns 502 on gateway failure", func(t *testing.T) {
		gateway := testutil.NewMockGateway()
		gateway.SearchErr = apperrors.ErrGatewayUnavailable
		handler := setupFundHandler(t, gateway)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/fund/search", map[string]string{"q": "161725"})
		w := httptest.NewRecorder()

		handler.Search(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", w.Code)
		}
	})
}

func TestFundHandler_Profile(t *testing.T) {
	t.Run("returns the fund profile", func(t *testing.T) {
		handler := setupFundHandler(t, testutil.NewMockGateway())

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725",
			map[string]string{"code": "161725"},
		)
		w := httptest.NewRecorder()

		handler.Profile(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var profile model.FundProfile
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&profile)

		if profile.Name != "招商中证白酒指数" {
			t.Errorf("Unexpected profile: %+v", profile)
		}
	})

	t.Run("returns 404 for an unknown fund", func(t *testing.T) {
		handler := setupFundHandler(t, testutil.NewMockGateway())

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/999999",
			map[string]string{"code": "999999"},
		)
		w := httptest.NewRecorder()

		handler.Profile(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestFundHandler_Holdings(t *testing.T) {
	t.Run("returns the enriched holdings report", func(t *testing.T) {
		handler := setupFundHandler(t, testutil.NewMockGateway())

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725/holdings",
			map[string]string{"code": "161725"},
		)
		w := httptest.NewRecorder()

		handler.Holdings(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var report model.HoldingsReport
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&report)

		if len(report.Holdings) != 2 || report.MatchedCount != 2 {
			t.Errorf("Unexpected report: %+v", report)
		}
	})

	t.Run("returns 502 when holdings are unavailable", func(t *testing.T) {
		gateway := testutil.NewMockGateway().WithHoldingsError(apperrors.ErrGatewayUnavailable)
		handler := setupFundHandler(t, gateway)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725/holdings",
			map[string]string{"code": "161725"},
		)
		w := httptest.NewRecorder()

		handler.Holdings(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", w.Code)
		}
	})
}

func TestFundHandler_Estimate(t *testing.T) {
	t.Run("returns the estimation result and records a snapshot", func(t *testing.T) {
		handler := setupFundHandler(t, testutil.NewMockGateway())

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725/estimate",
			map[string]string{"code": "161725"},
		)
		w := httptest.NewRecorder()

		handler.Estimate(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var result model.EstimationResult
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&result)

		if result.Kind != model.KindHoldingsWeighted {
			t.Errorf("Unexpected kind: %s", result.Kind)
		}

		// The served estimate must have been recorded.
		if _, err := handler.snapshots.Latest(req.Context(), "161725"); err != nil {
			t.Errorf("Expected a recorded snapshot: %v", err)
		}
	})

	t.Run("returns 404 with a stale snapshot when every tier fails", func(t *testing.T) {
		gateway := testutil.NewMockGateway()
		handler := setupFundHandler(t, gateway)

		// Seed history with one successful estimate.
		seed := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725/estimate",
			map[string]string{"code": "161725"},
		)
		handler.Estimate(httptest.NewRecorder(), seed)

		gateway.HoldingsErr = apperrors.ErrGatewayUnavailable
		gateway.NavErr = apperrors.ErrGatewayUnavailable

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725/estimate",
			map[string]string{"code": "161725"},
		)
		w := httptest.NewRecorder()

		handler.Estimate(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}

		var response EstimateUnavailableResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Stale == nil || response.Stale.FundCode != "161725" {
			t.Errorf("Expected a stale snapshot, got %+v", response)
		}
	})

	t.Run("returns 404 without stale data for an unseen fund", func(t *testing.T) {
		gateway := testutil.NewMockGateway().
			WithHoldingsError(apperrors.ErrGatewayUnavailable).
			WithNavError(apperrors.ErrGatewayUnavailable)
		handler := setupFundHandler(t, gateway)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725/estimate",
			map[string]string{"code": "161725"},
		)
		w := httptest.NewRecorder()

		handler.Estimate(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}

		var response EstimateUnavailableResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Stale != nil {
			t.Errorf("Expected no stale snapshot, got %+v", response.Stale)
		}
	})
}

func TestFundHandler_History(t *testing.T) {
	handler := setupFundHandler(t, testutil.NewMockGateway())

	// Record two estimates at different times.
	for i := 0; i < 2; i++ {
		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/161725/estimate",
			map[string]string{"code": "161725"},
		)
		handler.Estimate(httptest.NewRecorder(), req)
	}

	req := testutil.NewRequestWithURLParams(
		http.MethodGet,
		"/api/fund/161725/history",
		map[string]string{"code": "161725"},
	)
	w := httptest.NewRecorder()

	handler.History(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var snapshots []model.Snapshot
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&snapshots)

	if len(snapshots) != 2 {
		t.Errorf("Expected 2 snapshots, got %d", len(snapshots))
	}
}
