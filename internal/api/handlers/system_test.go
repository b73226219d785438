package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/fundwatch/fundwatch-backend/internal/calendar"
	"github.com/fundwatch/fundwatch-backend/internal/repository"
	"github.com/fundwatch/fundwatch-backend/internal/service"
	"github.com/fundwatch/fundwatch-backend/internal/store"
	"github.com/fundwatch/fundwatch-backend/internal/testutil"
)

func TestSystemHandler_Health(t *testing.T) {
	t.Run("returns healthy status when database is connected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		gateway := testutil.NewMockGateway()
		fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "watchlist.json"))
		snapshots := service.NewSnapshotService(repository.NewSnapshotRepository(db))
		funds := service.NewFundService(gateway, calendar.New(calendar.DefaultLocation(), nil))
		watchlist := service.NewWatchlistService(fileStore, funds, snapshots)
		handler := NewSystemHandler(db, watchlist)

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		w := httptest.NewRecorder()

		handler.Health(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response HealthResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Status != "healthy" {
			t.Errorf("Expected status 'healthy', got '%s'", response.Status)
		}
		if response.Database != "connected" {
			t.Errorf("Expected database 'connected', got '%s'", response.Database)
		}
		if response.WatchlistCorrupt {
			t.Error("Expected pristine watch-list")
		}
	})

	t.Run("returns 503 when database is disconnected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		gateway := testutil.NewMockGateway()
		fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "watchlist.json"))
		snapshots := service.NewSnapshotService(repository.NewSnapshotRepository(db))
		funds := service.NewFundService(gateway, calendar.New(calendar.DefaultLocation(), nil))
		watchlist := service.NewWatchlistService(fileStore, funds, snapshots)
		handler := NewSystemHandler(db, watchlist)

		// Close the database connection to simulate failure
		db.Close()

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		w := httptest.NewRecorder()

		handler.Health(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d: %s", w.Code, w.Body.String())
		}
	})
}
