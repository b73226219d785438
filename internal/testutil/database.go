package testutil

import (
	"database/sql"
	"testing"

	"github.com/fundwatch/fundwatch-backend/internal/database"
)

// SetupTestDB creates an in-memory SQLite database for testing with the
// full schema applied. The database is automatically cleaned up when the
// test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Faster journaling for tests
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		t.Fatalf("Failed to set pragma: %v", err)
	}

	// Same migration path as production
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
