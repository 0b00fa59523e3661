/**
 * @description
 * Civil-date helpers for the dispatch pipeline. The service keys everything on
 * calendar days in a single fixed-offset timezone (no DST), so these helpers
 * normalize instants to day boundaries and derive the default meeting window
 * for a date. All functions are pure; callers inject "now".
 */
package civil

import (
	"fmt"
	"time"
)

// FixedZone returns the service's fixed-offset location for the given offset
// in minutes east of UTC (e.g. 330 for +05:30).
func FixedZone(offsetMinutes int) *time.Location {
	sign := "+"
	mins := offsetMinutes
	if mins < 0 {
		sign = "-"
		mins = -mins
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, mins/60, mins%60)
	return time.FixedZone(name, offsetMinutes*60)
}

// DayOf normalizes an instant to midnight of its calendar day in loc.
func DayOf(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// NextDay returns midnight of the day after the given civil date.
func NextDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

// MeetingWindow applies a configured local start time ("HH:MM") and duration
// to a civil date, returning the concrete start and end instants of the
// meeting in the date's location.
func MeetingWindow(date time.Time, startTime string, durationMinutes int) (time.Time, time.Time, error) {
	parsed, err := time.Parse("15:04", startTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid meeting start time %q: %w", startTime, err)
	}
	if durationMinutes <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("meeting duration must be positive, got %d", durationMinutes)
	}

	start := time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location())
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return start, end, nil
}
