package grid

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// dayLayout is the canonical textual form of a Day and of week ids.
const dayLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var (
	// ErrInvalidDay is returned when a string is not a YYYY-MM-DD date.
	ErrInvalidDay = errors.New("grid: invalid day")
	// ErrInvalidWeekStart is returned for an unknown week-start convention.
	ErrInvalidWeekStart = errors.New("grid: invalid week start")
)

// Day is a calendar date without a time component, stored as the number of
// days since 1970-01-01. Two Days are equal iff they name the same calendar
// date, regardless of the instant or timezone they were derived from.
type Day int32

// Date returns the Day for the given year, month and day of month.
// Out-of-range values are normalized the same way time.Date does, so
// Date(2025, 13, 1) is 2026-01-01 and Date(2025, 3, 0) is 2025-02-28.
func Date(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day(t.Unix() / secondsPerDay)
}

// DayOf truncates t to its calendar date in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return DayOf(t), nil
}

func (d Day) utc() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Date returns the year, month and day of month of d.
func (d Day) Date() (year int, month time.Month, day int) {
	return d.utc().Date()
}

// Time returns midnight of d in loc. A nil loc means UTC.
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, dd := d.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, loc)
}

func (d Day) Weekday() time.Weekday {
	return d.utc().Weekday()
}

func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

// Sub returns the number of days from o to d (d - o).
func (d Day) Sub(o Day) int {
	return int(d - o)
}


func (d Day) String() string {
	return d.utc().Format(dayLayout)
}

// MarshalText encodes d as YYYY-MM-DD, which also makes Day a valid JSON
// object key and string value.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	v, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// WeekStart is the weekday a week begins on in calendar views.
type WeekStart int

const (
	Sunday WeekStart = 0
	Monday WeekStart = 1
)

// ParseWeekStart accepts "sunday", "monday", "0" or "1" (case-insensitive).
func ParseWeekStart(s string) (WeekStart, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun", "0":
		return Sunday, nil
	case "monday", "mon", "1":
		return Monday, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekStart, s)
	}
}

func (w WeekStart) String() string {
	switch w {
	case Sunday:
		return "sunday"
	case Monday:
		return "monday"
	default:
		return fmt.Sprintf("WeekStart(%d)", int(w))
	}
}

// MarshalText encodes the convention as "sunday" or "monday".
func (w WeekStart) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WeekStart) UnmarshalText(b []byte) error {
	v, err := ParseWeekStart(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}
