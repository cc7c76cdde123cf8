package discovery

import (
	"strings"
	"time"
)

var endDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseEndDate parses a listing end timestamp. Zone-less values are UTC.
// ok is false for empty or malformed input.
func ParseEndDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range endDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func endOf(p *string) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	return ParseEndDate(*p)
}
