// Package dateutil handles civil dates and timezone resolution. All raw
// files, grid windows, and daily rows are keyed by a YYYY-MM-DD date in
// the configured timezone, so date arithmetic lives here rather than
// being scattered over callers.
package dateutil

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for civil dates throughout the pipeline.
const DayLayout = "2006-01-02"

// IsTimezoneValid checks if the given timezone is valid by attempting to load it
// from the tz database rather than a hardcoded list.
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// LoadLocation resolves an IANA timezone name.
func LoadLocation(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}
	return loc, nil
}

// ParseDay parses a YYYY-MM-DD date as local midnight in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", day, err)
	}
	return t, nil
}

// FormatDay renders t's calendar date in its own location.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// AddDays shifts a civil date by n days (negative n goes back).
func AddDays(day string, n int, loc *time.Location) (string, error) {
	t, err := ParseDay(day, loc)
	if err != nil {
		return "", err
	}
	return FormatDay(t.AddDate(0, 0, n)), nil
}

// DayRange enumerates the civil dates from start to end inclusive.
// A start after end yields an empty range.
func DayRange(start, end string, loc *time.Location) ([]string, error) {
	s, err := ParseDay(start, loc)
	if err != nil {
		return nil, err
	}
	e, err := ParseDay(end, loc)
	if err != nil {
		return nil, err
	}

	var days []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, FormatDay(d))
	}
	return days, nil
}

// Today returns the current civil date as seen from loc.
func Today(now time.Time, loc *time.Location) string {
	return FormatDay(now.In(loc))
}

// Yesterday returns the civil date before Today. Fetch ranges end here
// so partially recorded days are not frozen into the dataset.
func Yesterday(now time.Time, loc *time.Location) string {
	return FormatDay(now.In(loc).AddDate(0, 0, -1))
}
