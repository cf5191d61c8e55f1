// Package timeutil provides display-time helpers. Storage is always UTC;
// conversion to a display timezone is pure formatting.
package timeutil

import (
	"fmt"
	"time"
)

// DisplayLayout is the human-facing timestamp format used by the dashboard.
const DisplayLayout = "2006-01-02 15:04:05"

// LoadDisplayLocation resolves an IANA timezone name for display purposes.
func LoadDisplayLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid display timezone %q: %w", name, err)
	}
	return loc, nil
}

// FormatInLocation renders a stored UTC timestamp in the display timezone.
func FormatInLocation(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}
