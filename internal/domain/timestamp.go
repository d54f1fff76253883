package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// epochMillisThreshold separates second and millisecond epoch values.
const epochMillisThreshold = 1e11

// ParseTimestamp parses a stored timestamp rendered as text. It accepts
// RFC 3339, PostgreSQL's text output for timestamp and timestamptz, bare
// dates, and integer epochs in seconds or milliseconds. Zone-less values
// are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse timestamp: empty")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= epochMillisThreshold || n <= -epochMillisThreshold {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognised format", s)
}
