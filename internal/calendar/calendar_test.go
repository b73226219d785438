package calendar_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/calendar"
)

var cst = time.FixedZone("CST", 8*3600)

// at builds a timestamp on a known Wednesday (2025-06-04) at the given
// local clock time.
func at(hour, minute, second int) time.Time {
	return time.Date(2025, 6, 4, hour, minute, second, 0, cst)
}

func TestIsWithinSessionHours(t *testing.T) {
	c := calendar.New(cst, nil)

	cases := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"morning open boundary", at(9, 30, 0), true},
		{"just before morning open", at(9, 29, 59), false},
		{"mid morning", at(10, 15, 0), true},
		{"morning close boundary", at(11, 30, 0), true},
		{"just after morning close", at(11, 30, 1), false},
		{"lunch gap", at(12, 0, 0), false},
		{"afternoon open boundary", at(13, 0, 0), true},
		{"afternoon close boundary", at(15, 0, 0), true},
		{"just after afternoon close", at(15, 0, 1), false},
		{"evening", at(20, 0, 0), false},
		{"before dawn", at(3, 0, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.IsWithinSessionHours(tc.ts); got != tc.want {
				t.Errorf("IsWithinSessionHours(%s) = %v, want %v", tc.ts.Format("15:04:05"), got, tc.want)
			}
		})
	}
}

func TestIsTradingDate(t *testing.T) {
	c := calendar.New(cst, []string{"2025-06-02"})

	t.Run("regular weekday", func(t *testing.T) {
		if !c.IsTradingDate(time.Date(2025, 6, 4, 10, 0, 0, 0, cst)) {
			t.Error("Expected Wednesday to be a trading date")
		}
	})

	t.Run("saturday", func(t *testing.T) {
		if c.IsTradingDate(time.Date(2025, 6, 7, 10, 0, 0, 0, cst)) {
			t.Error("Expected Saturday to not be a trading date")
		}
	})

	t.Run("sunday", func(t *testing.T) {
		if c.IsTradingDate(time.Date(2025, 6, 8, 10, 0, 0, 0, cst)) {
			t.Error("Expected Sunday to not be a trading date")
		}
	})

	t.Run("configured holiday on a weekday", func(t *testing.T) {
		// 2025-06-02 is a Monday (Dragon Boat Festival).
		if c.IsTradingDate(time.Date(2025, 6, 2, 10, 0, 0, 0, cst)) {
			t.Error("Expected holiday to not be a trading date")
		}
	})

	t.Run("timestamp in another zone is evaluated in exchange local time", func(t *testing.T) {
		// 2025-06-06 23:00 UTC is Saturday 07:00 in exchange local time.
		if c.IsTradingDate(time.Date(2025, 6, 6, 23, 0, 0, 0, time.UTC)) {
			t.Error("Expected UTC Friday evening to be local Saturday, not a trading date")
		}
	})
}

func TestIsLiveSession(t *testing.T) {
	c := calendar.New(cst, []string{"2025-06-02"})

	t.Run("trading date inside session hours", func(t *testing.T) {
		if !c.IsLiveSession(at(10, 0, 0)) {
			t.Error("Expected live session")
		}
	})

	t.Run("trading date outside session hours", func(t *testing.T) {
		if c.IsLiveSession(at(12, 0, 0)) {
			t.Error("Expected no live session during lunch gap")
		}
	})

	t.Run("holiday inside session hours", func(t *testing.T) {
		if c.IsLiveSession(time.Date(2025, 6, 2, 10, 0, 0, 0, cst)) {
			t.Error("Expected no live session on a holiday")
		}
	})
}

func TestLoadHolidays(t *testing.T) {
	t.Run("missing file yields empty set", func(t *testing.T) {
		holidays, err := calendar.LoadHolidays(filepath.Join(t.TempDir(), "absent.json"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(holidays) != 0 {
			t.Errorf("Expected no holidays, got %d", len(holidays))
		}
	})

	t.Run("reads a date list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "holidays.json")
		data, _ := json.Marshal([]string{"2025-01-01", "2025-10-01"})
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}

		holidays, err := calendar.LoadHolidays(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(holidays) != 2 {
			t.Fatalf("Expected 2 holidays, got %d", len(holidays))
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "holidays.json")
		if err := os.WriteFile(path, []byte(`["not-a-date"]`), 0o600); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}

		if _, err := calendar.LoadHolidays(path); err == nil {
			t.Error("Expected error for malformed date")
		}
	})
}
