package notify

import (
	"testing"
	"time"
)

func TestIsInQuietHours_MidnightSpan(t *testing.T) {
	// S7: {start:"22:00", end:"08:00", tz:"UTC"}.
	start := "22:00"
	end := "08:00"
	channel := Channel{
		QuietHoursStart:    &start,
		QuietHoursEnd:      &end,
		QuietHoursTimezone: "UTC",
	}

	tests := []struct {
		hour, minute int
		want         bool
	}{
		{23, 0, true},
		{8, 0, false},
		{22, 0, true},
	}
	for _, tt := range tests {
		now := time.Date(2026, 1, 1, tt.hour, tt.minute, 0, 0, time.UTC)
		if got := isInQuietHours(channel, now); got != tt.want {
			t.Errorf("isInQuietHours at %02d:%02d = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}
}

func TestIsInQuietHours_NonSpanningBoundaries(t *testing.T) {
	// Invariant 12: current == start is inclusive, current == end is exclusive.
	start := "09:00"
	end := "17:00"
	channel := Channel{
		QuietHoursStart:    &start,
		QuietHoursEnd:      &end,
		QuietHoursTimezone: "UTC",
	}

	atStart := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	if !isInQuietHours(channel, atStart) {
		t.Errorf("current == start should be in quiet hours (inclusive)")
	}
	atEnd := time.Date(2026, 1, 1, 17, 0, 0, 0, time.UTC)
	if isInQuietHours(channel, atEnd) {
		t.Errorf("current == end should not be in quiet hours (exclusive)")
	}
}

func TestIsInQuietHours_Disabled(t *testing.T) {
	channel := Channel{QuietHoursTimezone: "UTC"}
	if isInQuietHours(channel, time.Now()) {
		t.Errorf("channel with no start/end configured should never be in quiet hours")
	}
}

func TestIsInQuietHours_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	start := "22:00"
	end := "08:00"
	channel := Channel{
		QuietHoursStart:    &start,
		QuietHoursEnd:      &end,
		QuietHoursTimezone: "Not/A_Real_Zone",
	}
	now := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	if !isInQuietHours(channel, now) {
		t.Errorf("invalid timezone should fall back to UTC, not silently exclude")
	}
}
