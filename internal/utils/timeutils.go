package utils

import (
	"fmt"
	"time"
)

// timestampLayouts lists accepted snapshot timestamp formats. Demo payloads
// carry zone-less ISO timestamps, Prometheus-derived ones carry RFC3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp returns a time from the provided string or an error.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: unrecognised format", value)
}

// MinutesBetween converts a pair of timestamps into whole minutes.
// Negative spans truncate toward zero; callers clamp as needed.
func MinutesBetween(start, end time.Time) int {
	return int(end.Sub(start).Seconds()) / 60
}
