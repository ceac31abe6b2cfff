package sidereal

import (
	"strings"
	"time"
)

// Layouts tried after RFC 3339, interpreted in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses s as RFC 3339, or as a local date/time in loc when it
// carries no offset. A nil loc means UTC. Failures are *InvalidInputError.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &InvalidInputError{Reason: "empty timestamp"}
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &InvalidInputError{
		Input:  s,
		Reason: "expected RFC 3339 or YYYY-MM-DD[ HH:MM[:SS]]",
	}
}
