// Package timezone is the booking clock. Everything is stored and compared in UTC; the
// configured location only affects how timestamps are rendered back to clients.
package timezone

import (
	"fmt"
	"sync"
	"time"

	"slotkeeper/shared/constant"
)

var (
	mu       sync.RWMutex
	location = time.UTC
	clock    = time.Now
)

// Init sets the display location. An empty name keeps UTC.
func Init(name string) error {
	if name == "" {
		return nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", name, err)
	}

	mu.Lock()
	location = loc
	mu.Unlock()

	return nil
}

// Now returns the current instant in UTC.
func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()

	return clock().UTC()
}

// SetClock replaces the time source and returns a func restoring the previous one.
func SetClock(fn func() time.Time) (restore func()) {
	mu.Lock()
	previous := clock
	clock = fn
	mu.Unlock()

	return func() {
		mu.Lock()
		clock = previous
		mu.Unlock()
	}
}

// Location returns the display location.
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()

	return location
}

// ParseDay parses a YYYY-MM-DD calendar day as midnight UTC.
func ParseDay(value string) (time.Time, error) {
	day, err := time.Parse(constant.DayFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", value, err)
	}

	return day, nil
}

// Format renders t as RFC 3339 in the display location.
func Format(t time.Time) string {
	return t.In(Location()).Format(constant.DateFormat)
}
