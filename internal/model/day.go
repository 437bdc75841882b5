package model

import (
	"encoding/json"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date (YYYY-MM-DD) with no time-of-day semantics.
type Day string

// ParseDay accepts "YYYY-MM-DD" or any timestamp starting with it
// (e.g. "2025-03-01T00:00:00.000Z"); the time part is dropped.
func ParseDay(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dayLayout) {
		return "", false
	}
	s = s[:len(dayLayout)]
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", false
	}
	return Day(s), true
}

func DayOf(t time.Time) Day { return Day(t.Format(dayLayout)) }

func (d Day) Before(o Day) bool { return string(d) < string(o) }

func (d Day) Time() (time.Time, bool) {
	t, err := time.ParseInLocation(dayLayout, string(d), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (d Day) String() string { return string(d) }

// UnmarshalJSON is lenient: unparseable values decode as the empty Day, which
// callers treat as "no due date".
func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = ""
		return nil
	}
	day, _ := ParseDay(s)
	*d = day
	return nil
}
