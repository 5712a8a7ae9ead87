package ingest

import (
	"strings"
	"time"
)

// timestampLayouts is the ordered parse catalog for open/close timestamps.
// Day-first layouts sit ahead of month-first where both could match, since
// the exports are day-first by default.
var timestampLayouts = []string{
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04",
	"01/02/2006 15:04",
	"02-01-06 15:04:05",
	"02-01-06 15:04",
	"02-Jan-06 15:04:05",
	"02-Jan-06 15:04",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
	"2006/01/02 15:04:05",
	"01/02/06 15:04:05",
	"02/01/06 15:04:05",
	"2006-01-02T15:04:05",
	"02-Jan-2006 15:04:05",
	"01/02/2006 03:04:05 PM",
	"02/01/2006 03:04:05 PM",
	"2006-01-02 03:04:05 PM",
}

// dateLayouts covers date-only values, which resolve to midnight.
var dateLayouts = []string{
	"02-01-2006",
	"02-01-06",
	"02-Jan-06",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

// ParseTimestamp parses one raw value against the layout catalog, first
// match wins. Date-only values are accepted and resolve to midnight.
func ParseTimestamp(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return parseDate(v)
}

// ParseDateOnly parses a raw value against the date-only catalog.
func ParseDateOnly(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	return parseDate(v)
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
