package window

import (
	"strings"
	"time"
)

// Accepted timestamp layouts, tried in order. Layouts without an offset are
// read as UTC, which is what the backend stores.
var instantLayouts = []string{ //nolint:gochecknoglobals // fixed parse table
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses a backend timestamp. ok is false for empty or
// unrecognised input.
func ParseInstant(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsWithinRange reports whether raw parses to an instant in [start, end].
func IsWithinRange(raw string, start, end time.Time) bool {
	t, ok := ParseInstant(raw)
	if !ok {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// IntervalsOverlap reports whether [start, end] overlaps [rangeStart, rangeEnd].
// An empty start is unbounded in the past and an empty end is unbounded in the
// future. A non-empty bound that fails to parse never overlaps.
func IntervalsOverlap(start, end string, rangeStart, rangeEnd time.Time) bool {
	effectiveStart, startBounded, ok := parseBound(start)
	if !ok {
		return false
	}
	effectiveEnd, endBounded, ok := parseBound(end)
	if !ok {
		return false
	}

	if startBounded && effectiveStart.After(rangeEnd) {
		return false
	}
	if endBounded && effectiveEnd.Before(rangeStart) {
		return false
	}
	return true
}

func parseBound(raw string) (t time.Time, bounded, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, false, true
	}
	t, ok = ParseInstant(raw)
	return t, true, ok
}
