/*
Package calendar provides UTC calendar-day values and inclusive day intervals.

PURPOSE:
  Every time entry represents exactly one calendar day. Requests arrive as
  instants with arbitrary offsets; everything downstream works on whole
  UTC days. This package is the single place where that conversion happens.

KEY TYPES:
  Date:     A UTC calendar day (time-of-day zeroed). Comparable with ==.
  Interval: An inclusive [Start, End] range of Dates.

NORMALIZATION:
  NormalizeInterval converts an instant pair to UTC first, then truncates
  to midnight. 2022-04-15T23:30:00-05:00 becomes 2022-04-16.

SEE ALSO:
  - interval.go: Interval, day sequencing
  - timeentry/reconciler.go: Main consumer
*/
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - A UTC calendar day
// =============================================================================

// Date is a UTC calendar day. The zero value is 0001-01-01.
// Two Dates are == iff they denote the same day.
type Date struct {
	t time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the UTC calendar day containing the instant t.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Today returns the current UTC day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// ParseInstant accepts either an RFC3339 timestamp or a bare YYYY-MM-DD date
// and returns the instant it denotes. Bare dates are taken as UTC midnight.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (use RFC3339 or YYYY-MM-DD)", s)
	}
	return t, nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Day() int     { return d.t.Day() }
func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the whole days from -> to (negative if to is earlier).
// Both dates are UTC midnights, so every day is exactly 86400 seconds.
// time.Duration is avoided: it saturates after about 292 years.
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / 86400)
}
