package packing

import (
	"sort"

	"calgrid/internal/grid"
)

// Occupancy records which rows are taken on which days, per grouping key.
//
// A row appears under (key, day) iff an event placed with that row is visible
// on that day in the key's current session. An Occupancy must never be shared
// by two live sessions of different scopes; Reset a key before reusing it.
type Occupancy struct {
	record map[string]map[grid.Day][]int
}

func NewOccupancy() *Occupancy {
	return &Occupancy{record: make(map[string]map[grid.Day][]int)}
}

// Push marks row as taken on spanDays consecutive days starting at start.
// A non-positive span or row records nothing.
func (o *Occupancy) Push(key string, start grid.Day, spanDays, row int) {
	if spanDays <= 0 || row <= 0 {
		return
	}
	if o.record == nil {
		o.record = make(map[string]map[grid.Day][]int)
	}
	days := o.record[key]
	if days == nil {
		days = make(map[grid.Day][]int)
		o.record[key] = days
	}
	for i := 0; i < spanDays; i++ {
		d := start.AddDays(i)
		days[d] = insertRow(days[d], row)
	}
}

// RowNums returns the rows taken on day under key, ascending. Unknown keys
// and days yield an empty slice.
func (o *Occupancy) RowNums(key string, day grid.Day) []int {
	rows := o.record[key][day]
	out := make([]int, len(rows))
	copy(out, rows)
	return out
}

// MaxRow returns the highest row taken on day under key, or 0.
func (o *Occupancy) MaxRow(key string, day grid.Day) int {
	rows := o.record[key][day]
	if len(rows) == 0 {
		return 0
	}
	return rows[len(rows)-1]
}

// Reset forgets everything recorded under key.
func (o *Occupancy) Reset(key string) {
	delete(o.record, key)
}

// insertRow adds row to the ascending set rows.
func insertRow(rows []int, row int) []int {
	i := sort.SearchInts(rows, row)
	if i < len(rows) && rows[i] == row {
		return rows
	}
	rows = append(rows, 0)
	copy(rows[i+1:], rows[i:])
	rows[i] = row
	return rows
}
