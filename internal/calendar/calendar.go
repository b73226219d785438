// Package calendar decides whether a moment should be treated as a live
// trading session of the China A-share market for data-freshness purposes.
//
// The date-level and time-of-day checks are deliberately separate
// predicates; IsLiveSession composes them explicitly.
package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Session hours of the reference exchange, inclusive on both ends,
// expressed as seconds since midnight local time.
const (
	morningOpen    = 9*3600 + 30*60  // 09:30:00
	morningClose   = 11*3600 + 30*60 // 11:30:00
	afternoonOpen  = 13 * 3600       // 13:00:00
	afternoonClose = 15 * 3600       // 15:00:00
)

// Calendar answers trading-session questions for one exchange. It performs
// no I/O after construction; the holiday set is externally supplied
// configuration, not computed.
type Calendar struct {
	loc      *time.Location
	holidays map[string]struct{}
}

// New creates a Calendar for the given location and holiday dates.
// Holidays are calendar dates formatted as "2006-01-02" in the exchange's
// local time zone.
func New(loc *time.Location, holidays []string) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, d := range holidays {
		set[d] = struct{}{}
	}
	return &Calendar{loc: loc, holidays: set}
}

// DefaultLocation returns the exchange's local time zone. It falls back to
// a fixed UTC+8 zone when the system has no tzdata.
func DefaultLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Shanghai"); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*3600)
}

// LoadHolidays reads a JSON array of "2006-01-02" dates from path.
// A missing file yields an empty holiday set.
func LoadHolidays(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}

	var holidays []string
	if err := json.Unmarshal(data, &holidays); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}

	for _, d := range holidays {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", d, err)
		}
	}

	return holidays, nil
}

// IsTradingDate reports whether t's calendar date is a trading day:
// a weekday that is not in the holiday set.
func (c *Calendar) IsTradingDate(t time.Time) bool {
	local := t.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[local.Format("2006-01-02")]
	return !holiday
}

// IsWithinSessionHours reports whether t's time of day falls inside one of
// the two intraday trading windows (09:30-11:30, 13:00-15:00), boundaries
// inclusive. It says nothing about the date; compose with IsTradingDate.
func (c *Calendar) IsWithinSessionHours(t time.Time) bool {
	local := t.In(c.loc)
	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if sec >= morningOpen && sec <= morningClose {
		return true
	}
	return sec >= afternoonOpen && sec <= afternoonClose
}

// IsLiveSession reports whether t is inside a live trading session.
func (c *Calendar) IsLiveSession(t time.Time) bool {
	return c.IsTradingDate(t) && c.IsWithinSessionHours(t)
}
