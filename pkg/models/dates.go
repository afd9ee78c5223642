package models

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// Tried in order; the first layout that parses wins. Day-first layouts come
// before any month-first reading so "15/11/2025" is the 15th of November.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	DateLayout,
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
}

// FormatDate renders t as YYYY-MM-DD, dropping the time of day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts time values, the layouts above and unix milliseconds.
// Strings none of the layouts match go to dateparse, read as UTC.
// The bool is false when v carries no usable date.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return d, true
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return *d, true
	case string:
		return parseDateString(d)
	case float64:
		return time.UnixMilli(int64(d)).UTC(), true
	case int64:
		return time.UnixMilli(d).UTC(), true
	case int:
		return time.UnixMilli(int64(d)).UTC(), true
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// beforeDay compares calendar days, ignoring the time of day and location.
func beforeDay(a, b time.Time) bool {
	return dateOnly(a).Before(dateOnly(b))
}
