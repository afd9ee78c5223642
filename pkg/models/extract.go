package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Rule lists, in priority order, the keys a logical field may arrive under.
// The first key present with a non-null value wins; callers fall back to a
// default when none matches.
type Rule struct {
	Field string
	Keys  []string
}

// Keys builds the usual rule for a field: the canonical name first, then the
// underscore-prefixed name, then any extra aliases.
func Keys(field string, aliases ...string) Rule {
	keys := append([]string{field, "_" + field}, aliases...)
	return Rule{Field: field, Keys: keys}
}

func (r Rule) Lookup(raw map[string]any) (any, bool) {
	for _, k := range r.Keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Rule) String(raw map[string]any) string {
	v, ok := r.Lookup(raw)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// Int accepts JSON numbers and numeric strings; anything else yields 0.
func (r Rule) Int(raw map[string]any) int {
	v, ok := r.Lookup(raw)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

// Date returns the parsed date, or fallback when the value is missing or
// cannot be parsed.
func (r Rule) Date(raw map[string]any, fallback time.Time) time.Time {
	if t, ok := r.OptionalDate(raw); ok {
		return t
	}
	return fallback
}

func (r Rule) OptionalDate(raw map[string]any) (time.Time, bool) {
	v, ok := r.Lookup(raw)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(v)
}
