package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/calendar"
	"github.com/fundwatch/fundwatch-backend/internal/model"
	"github.com/fundwatch/fundwatch-backend/internal/repository"
	"github.com/fundwatch/fundwatch-backend/internal/service"
	"github.com/fundwatch/fundwatch-backend/internal/store"
	"github.com/fundwatch/fundwatch-backend/internal/testutil"
)

func setupWatchlistHandler(t *testing.T, gateway *testutil.MockGateway) *WatchlistHandler {
	t.Helper()

	db := testutil.SetupTestDB(t)
	fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "watchlist.json"))
	snapshots := service.NewSnapshotService(repository.NewSnapshotRepository(db))
	funds := service.NewFundService(gateway, calendar.New(testZone, nil))
	watchlist := service.NewWatchlistService(fileStore, funds, snapshots)
	handler := NewWatchlistHandler(watchlist)
	handler.clock = func() time.Time { return tradingMoment }
	return handler
}

func addFund(t *testing.T, handler *WatchlistHandler, code string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(`{"code":"`+code+`"}`))
	w := httptest.NewRecorder()
	handler.Add(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to add %s: %d %s", code, w.Code, w.Body.String())
	}
}

func TestWatchlistHandler_Add(t *testing.T) {
	t.Run("creates a new entry", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())

		req := httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(`{"code":"161725"}`))
		w := httptest.NewRecorder()

		handler.Add(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var entry model.WatchlistEntry
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&entry)

		if entry.Code != "161725" || entry.Name != "招商中证白酒指数" {
			t.Errorf("Unexpected entry: %+v", entry)
		}
	})

	t.Run("adding an existing code returns 200", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())
		addFund(t, handler, "161725")

		req := httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(`{"code":"161725"}`))
		w := httptest.NewRecorder()

		handler.Add(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects a malformed code", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())

		req := httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(`{"code":"16172x"}`))
		w := httptest.NewRecorder()

		handler.Add(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("rejects an unparsable body", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())

		req := httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(`not json`))
		w := httptest.NewRecorder()

		handler.Add(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestWatchlistHandler_List(t *testing.T) {
	handler := setupWatchlistHandler(t, testutil.NewMockGateway())
	addFund(t, handler, "161725")

	req := httptest.NewRequest(http.MethodGet, "/api/watchlist", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response WatchlistResponse
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&response)

	if len(response.Entries) != 1 || response.Entries[0].Code != "161725" {
		t.Errorf("Unexpected entries: %+v", response.Entries)
	}
	if response.Corrupt {
		t.Error("Expected pristine watch-list")
	}
}

func TestWatchlistHandler_Remove(t *testing.T) {
	handler := setupWatchlistHandler(t, testutil.NewMockGateway())
	addFund(t, handler, "161725")

	req := testutil.NewRequestWithURLParams(
		http.MethodDelete,
		"/api/watchlist/161725",
		map[string]string{"code": "161725"},
	)
	w := httptest.NewRecorder()

	handler.Remove(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d: %s", w.Code, w.Body.String())
	}

	if len(handler.watchlistService.Entries()) != 0 {
		t.Error("Expected the entry to be removed")
	}
}

func TestWatchlistHandler_Values(t *testing.T) {
	handler := setupWatchlistHandler(t, testutil.NewMockGateway())
	addFund(t, handler, "161725")

	req := httptest.NewRequest(http.MethodGet, "/api/watchlist/values", nil)
	w := httptest.NewRecorder()

	handler.Values(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var values []model.WatchlistValue
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&values)

	if len(values) != 1 {
		t.Fatalf("Expected 1 value, got %d", len(values))
	}
	if values[0].Result == nil || values[0].Result.Kind != model.KindHoldingsWeighted {
		t.Errorf("Unexpected value: %+v", values[0])
	}
}

func TestWatchlistHandler_Export(t *testing.T) {
	t.Run("defaults to the JSON backup form", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())
		addFund(t, handler, "161725")

		req := httptest.NewRequest(http.MethodGet, "/api/watchlist/export", nil)
		w := httptest.NewRecorder()

		handler.Export(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		entries, err := store.ParseEntries(w.Body.Bytes())
		if err != nil {
			t.Fatalf("Export is not importable: %v", err)
		}
		if len(entries) != 1 || entries[0].Code != "161725" {
			t.Errorf("Unexpected export: %+v", entries)
		}
	})

	t.Run("serves a CSV report", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())
		addFund(t, handler, "161725")

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/watchlist/export", map[string]string{"format": "csv"})
		w := httptest.NewRecorder()

		handler.Export(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("Unexpected content type: %s", ct)
		}
		if !strings.HasPrefix(w.Body.String(), "code,name,value") {
			t.Errorf("Unexpected CSV body: %s", w.Body.String())
		}
	})

	t.Run("rejects an unknown format", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/watchlist/export", map[string]string{"format": "xml"})
		w := httptest.NewRecorder()

		handler.Export(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestWatchlistHandler_Import(t *testing.T) {
	t.Run("merges entries and reports the count", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())
		addFund(t, handler, "161725")

		body := `[{"code":"161725","name":"renamed"},{"code":"005827","name":"new"}]`
		req := httptest.NewRequest(http.MethodPost, "/api/watchlist/import", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Import(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response ImportResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Imported != 2 {
			t.Errorf("Expected 2 imported, got %d", response.Imported)
		}

		entries := handler.watchlistService.Entries()
		if len(entries) != 2 || entries[0].Name != "renamed" {
			t.Errorf("Unexpected entries: %+v", entries)
		}
	})

	t.Run("rejects an unparsable payload", func(t *testing.T) {
		handler := setupWatchlistHandler(t, testutil.NewMockGateway())

		req := httptest.NewRequest(http.MethodPost, "/api/watchlist/import", strings.NewReader(`{"bad":"shape"}`))
		w := httptest.NewRecorder()

		handler.Import(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
