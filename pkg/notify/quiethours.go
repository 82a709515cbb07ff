package notify

import (
	"strconv"
	"strings"
	"time"
)

// parseHHMM parses an "HH:MM" string into minutes since midnight.
func parseHHMM(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// isInQuietHours reports whether now falls within the channel's configured
// quiet-hours window [start, end), evaluated in the channel's timezone. A
// start > end denotes a midnight-spanning range; start == end is an empty
// window. Missing or unparseable bounds give false; an unknown timezone falls
// back to UTC.
func isInQuietHours(c Channel, now time.Time) bool {
	if c.QuietHoursStart == nil || c.QuietHoursEnd == nil {
		return false
	}
	start, ok := parseHHMM(*c.QuietHoursStart)
	if !ok {
		return false
	}
	end, ok := parseHHMM(*c.QuietHoursEnd)
	if !ok {
		return false
	}

	loc, err := time.LoadLocation(c.QuietHoursTimezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()

	if start <= end {
		return current >= start && current < end
	}
	return current >= start || current < end
}
