// Package grid computes the date grids calendar views are laid out on: the
// padded month grid, its week rows, flat day ranges and their month groups.
//
// Every function here is pure and total. Week-start conventions are always
// passed explicitly; there is no package default.
package grid

import (
	"fmt"
	"time"
)

// WeekStartOf rolls d back to the first day of its week under ws.
//
// For Monday weeks a Sunday rolls back 6 days and any other weekday rolls
// back (weekday - 1) days; for Sunday weeks every day rolls back to the
// preceding (or same) Sunday.
func WeekStartOf(d Day, ws WeekStart) Day {
	back := ((int(d.Weekday())-int(ws))%7 + 7) % 7
	return d.AddDays(-back)
}

// WeekID is the YYYY-MM-DD of the first day of d's week under ws.
func WeekID(d Day, ws WeekStart) string {
	return WeekStartOf(d, ws).String()
}

// MonthlyStartDate returns the first day of the padded month grid for
// date's month: the 1st of the month rolled back to its week start.
func MonthlyStartDate(date Day, ws WeekStart) Day {
	y, m, _ := date.Date()
	return WeekStartOf(Date(y, m, 1), ws)
}

// MonthlyEndDate returns the last day of the padded month grid for date's
// month: the last day of the month rolled forward to the end of its week
// (Saturday for Sunday weeks, Sunday for Monday weeks).
func MonthlyEndDate(date Day, ws WeekStart) Day {
	y, m, _ := date.Date()
	last := Date(y, m+1, 0)
	return WeekStartOf(last, ws).AddDays(6)
}

// GenerateDates returns every day from from to to inclusive, ascending.
// An inverted range yields an empty slice; callers decide whether that is
// an error.
func GenerateDates(from, to Day) []Day {
	if to < from {
		return []Day{}
	}
	out := make([]Day, 0, to.Sub(from)+1)
	for d := from; d <= to; d++ {
		out = append(out, d)
	}
	return out
}

// MonthGroup is a contiguous run of days sharing one calendar month.
type MonthGroup struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []Day      `json:"days"`
}

// GroupDatesByMonth splits an ascending day sequence into runs of the same
// (year, month). Runs may start and end mid-month.
func GroupDatesByMonth(days []Day) []MonthGroup {
	groups := make([]MonthGroup, 0)
	for _, d := range days {
		y, m, _ := d.Date()
		if n := len(groups); n > 0 && groups[n-1].Year == y && groups[n-1].Month == m {
			groups[n-1].Days = append(groups[n-1].Days, d)
			continue
		}
		groups = append(groups, MonthGroup{Year: y, Month: m, Days: []Day{d}})
	}
	return groups
}

// Week is one 7-day row of a month grid.
type Week struct {
	ID   string `json:"id"`
	Days []Day  `json:"days"`
}

// MonthWeeks splits the padded grid of date's month into week rows.
// A month grid always has between 4 and 6 rows.
func MonthWeeks(date Day, ws WeekStart) []Week {
	days := GenerateDates(MonthlyStartDate(date, ws), MonthlyEndDate(date, ws))
	weeks := make([]Week, 0, len(days)/7)
	for i := 0; i+7 <= len(days); i += 7 {
		weeks = append(weeks, Week{
			ID:   days[i].String(),
			Days: days[i : i+7 : i+7],
		})
	}
	return weeks
}

// YearMonth identifies one month panel.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the month d falls in.
func MonthOf(d Day) YearMonth {
	y, m, _ := d.Date()
	return YearMonth{Year: y, Month: m}
}

func (ym YearMonth) FirstDay() Day {
	return Date(ym.Year, ym.Month, 1)
}

// AddMonths moves ym by n months, rolling the year as needed.
func (ym YearMonth) AddMonths(n int) YearMonth {
	return MonthOf(Date(ym.Year, ym.Month+time.Month(n), 1))
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MonthPanels lists the months a horizontally paged month view can scroll
// through: half months before anchor's month, the month itself, then half
// months after it.
func MonthPanels(anchor Day, half int) []YearMonth {
	if half < 0 {
		half = 0
	}
	center := MonthOf(anchor)
	out := make([]YearMonth, 0, 2*half+1)
	for i := -half; i <= half; i++ {
		out = append(out, center.AddMonths(i))
	}
	return out
}
