package civil

import (
	"testing"
	"time"
)

func TestDayOfNormalizesAcrossOffset(t *testing.T) {
	loc := FixedZone(330) // +05:30

	// 20:00 UTC is already the next calendar day at +05:30.
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	day := DayOf(now, loc)

	if day.Year() != 2025 || day.Month() != 3 || day.Day() != 11 {
		t.Fatalf("expected civil date 2025-03-11, got %s", day.Format("2006-01-02"))
	}
	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 {
		t.Fatalf("expected midnight boundary, got %s", day.Format(time.RFC3339))
	}
}

func TestDayOfIsIdempotent(t *testing.T) {
	loc := FixedZone(-300)
	now := time.Date(2025, 6, 1, 13, 45, 12, 0, time.UTC)

	once := DayOf(now, loc)
	twice := DayOf(once, loc)
	if !once.Equal(twice) {
		t.Fatalf("expected DayOf to be idempotent, got %s then %s", once, twice)
	}
}

func TestMeetingWindow(t *testing.T) {
	loc := FixedZone(330)
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, loc)

	start, end, err := MeetingWindow(date, "21:00", 60)
	if err != nil {
		t.Fatalf("MeetingWindow returned error: %v", err)
	}
	if start.Hour() != 21 || start.Minute() != 0 {
		t.Fatalf("expected start at 21:00 local, got %s", start.Format("15:04"))
	}
	if got := end.Sub(start); got != time.Hour {
		t.Fatalf("expected 60 minute window, got %s", got)
	}
	if start.Location() != loc {
		t.Fatalf("expected window in the date's location, got %s", start.Location())
	}
}

func TestMeetingWindowRejectsBadInput(t *testing.T) {
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	if _, _, err := MeetingWindow(date, "9pm", 60); err == nil {
		t.Fatal("expected error for malformed start time")
	}
	if _, _, err := MeetingWindow(date, "21:00", 0); err == nil {
		t.Fatal("expected error for non-positive duration")
	}
}

func TestNextDay(t *testing.T) {
	loc := FixedZone(330)
	day := time.Date(2025, 12, 31, 0, 0, 0, 0, loc)

	next := NextDay(day)
	if next.Year() != 2026 || next.Month() != 1 || next.Day() != 1 {
		t.Fatalf("expected 2026-01-01, got %s", next.Format("2006-01-02"))
	}
}
