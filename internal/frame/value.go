package frame

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is how calendar dates render as text.
const DateLayout = "2006-01-02"

// timeLayouts are tried, in order, when a date cell arrives as text.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
}

// IsNull treats nil, a zero time and NaN as missing.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case time.Time:
		return t.IsZero()
	case *time.Time:
		return t == nil || t.IsZero()
	case float64:
		return math.IsNaN(t)
	}
	return false
}

// Text renders a cell the way it would appear in an export. Null is "".
func Text(v any) string {
	if IsNull(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(DateLayout)
		}
		return t.Format("2006-01-02 15:04:05")
	case *time.Time:
		return Text(*t)
	case []byte:
		return string(t)
	}
	return ""
}

// Contains reports whether the cell is non-null text containing sub.
// Non-string cells never match.
func Contains(v any, sub string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.Contains(s, sub)
}

// ContainsAny is Contains over alternatives.
func ContainsAny(v any, subs ...string) bool {
	for _, s := range subs {
		if Contains(v, s) {
			return true
		}
	}
	return false
}

// Time coerces a cell to a time. Text is parsed with the known layouts.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return ParseTime(t)
	}
	return time.Time{}, false
}

// ParseTime tries each layout in turn.
func ParseTime(s string, layouts ...string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(layouts) == 0 {
		layouts = timeLayouts
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Truncate drops the time of day, keeping the location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween is the whole number of days from start to end, floored.
func DaysBetween(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Hours() / 24))
}
