package events

import (
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 local date-time carried in envelopes.
// Fractional seconds are accepted when parsing.
const TimestampLayout = "2006-01-02T15:04:05"

// fallbackLayouts are tried in order after TimestampLayout by lenient parsers.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders t in UTC with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses s with TimestampLayout, as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// TimeParser turns an envelope timestamp into a time. It never fails: an
// unparseable value becomes the parser's current time.
type TimeParser func(s string) time.Time

// StrictTime accepts only TimestampLayout and falls back to now().
func StrictTime(now func() time.Time) TimeParser {
	return func(s string) time.Time {
		if t, err := ParseTimestamp(s); err == nil {
			return t
		}
		return now().UTC()
	}
}

// LenientTime tries TimestampLayout, then RFC 3339 with nanoseconds, then
// "2006-01-02 15:04:05", then a bare date, and finally falls back to now().
func LenientTime(now func() time.Time) TimeParser {
	return func(s string) time.Time {
		if t, err := ParseTimestamp(s); err == nil {
			return t
		}
		for _, layout := range fallbackLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		return now().UTC()
	}
}
