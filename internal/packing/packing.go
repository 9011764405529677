// Package packing assigns events to vertical row slots inside a run of day
// cells so that events visible on the same day never share a row.
//
// Packing happens in sessions. A session covers one grouping key (a week or
// a resource) over one ascending, contiguous window of days. Within a session
// an event keeps the row it was first given on every day it stays visible.
// Nothing carries over between sessions.
package packing

import (
	"sort"

	"calgrid/internal/grid"
	"calgrid/internal/model"
)

// Slot is one row position inside a day cell.
//
// When Event is set the event's bar starts in this cell and covers Span
// visible days. Clipped marks bars whose event began before the window.
// When Event is nil the slot is a spacer: Occupant names the event that
// started earlier in the session and still holds the row, and is empty for
// a plain gap kept so that lower rows line up.
type Slot struct {
	Row      int          `json:"row"`
	Event    *model.Event `json:"event,omitempty"`
	Span     int          `json:"span,omitempty"`
	Clipped  bool         `json:"clipped,omitempty"`
	Occupant string       `json:"occupant,omitempty"`
}

func (s Slot) Spacer() bool { return s.Event == nil }

// Cell is the row slots of one day, ordered by row starting at 1.
type Cell struct {
	Day   grid.Day `json:"day"`
	Slots []Slot   `json:"slots"`
}

// Layout is the outcome of one packing session.
type Layout struct {
	Key    string         `json:"key"`
	Window []grid.Day     `json:"window"`
	Cells  []Cell         `json:"cells"`
	Rows   map[string]int `json:"rows"`
	// RowCount is the largest number of slots in any cell.
	RowCount int `json:"row_count"`
}

// Pack runs a fresh session for key over window.
func Pack(key string, window []grid.Day, events []model.Event) Layout {
	return NewPacker().Pack(key, window, events)
}

// Packer runs sessions against one Occupancy owned by a single render, such
// as a month panel whose weeks are packed one after another. The zero value
// is ready to use.
type Packer struct {
	occ *Occupancy
}

func NewPacker() *Packer {
	return &Packer{occ: NewOccupancy()}
}

// Occupancy exposes the table the packer writes to. It reflects the last
// session run for each key.
func (p *Packer) Occupancy() *Occupancy {
	if p.occ == nil {
		p.occ = NewOccupancy()
	}
	return p.occ
}

// Pack clears key's occupancy and packs events over window, one day at a
// time in ascending order.
//
// On each day the events starting there are placed, longest visible span
// first, then earliest true start, then input order. Events that began
// before the window count as starting on its first day. Rows already held by
// earlier placements become spacers; free rows take the next event. Inverted
// events are skipped.
func (p *Packer) Pack(key string, window []grid.Day, events []model.Event) Layout {
	occ := p.Occupancy()
	occ.Reset(key)

	out := Layout{
		Key:    key,
		Window: window,
		Cells:  make([]Cell, 0, len(window)),
		Rows:   make(map[string]int),
	}
	if len(window) == 0 {
		return out
	}

	first, last := window[0], window[len(window)-1]
	placed := make([]bool, len(events))
	var held []placement

	for _, d := range window {
		cands := candidatesOn(d, first, events, placed)
		occupied := occ.RowNums(key, d)
		top := occ.MaxRow(key, d)

		slots := make([]Slot, 0, len(occupied)+len(cands))
		next := 0
		for row := 1; len(cands) > 0 || row <= top; row++ {
			if next < len(occupied) && occupied[next] == row {
				next++
				slots = append(slots, Slot{Row: row, Occupant: holderOf(held, row, d)})
				continue
			}
			if len(cands) == 0 {
				slots = append(slots, Slot{Row: row})
				continue
			}

			c := cands[0]
			cands = cands[1:]

			ev := events[c.index]
			end := ev.EndDay()
			if end > last {
				end = last
			}
			span := end.Sub(c.visibleStart) + 1

			occ.Push(key, c.visibleStart, span, row)
			placed[c.index] = true
			held = append(held, placement{id: ev.ID, row: row, from: c.visibleStart, to: end})
			out.Rows[ev.ID] = row

			slots = append(slots, Slot{
				Row:     row,
				Event:   &ev,
				Span:    span,
				Clipped: c.start < first,
			})
		}

		if len(slots) > out.RowCount {
			out.RowCount = len(slots)
		}
		out.Cells = append(out.Cells, Cell{Day: d, Slots: slots})
	}

	return out
}

type candidate struct {
	index        int
	start        grid.Day
	visibleStart grid.Day
	span         int
}

// candidatesOn returns the not yet placed events whose bar starts on d,
// in placement order.
func candidatesOn(d, first grid.Day, events []model.Event, placed []bool) []candidate {
	var out []candidate
	for i, ev := range events {
		if placed[i] || ev.Inverted() {
			continue
		}
		start, end := ev.StartDay(), ev.EndDay()
		visible := start
		if visible < first {
			visible = first
		}
		if visible != d || end < d {
			continue
		}
		out = append(out, candidate{
			index:        i,
			start:        start,
			visibleStart: visible,
			span:         end.Sub(visible),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].span != out[b].span {
			return out[a].span > out[b].span
		}
		return out[a].start < out[b].start
	})
	return out
}

type placement struct {
	id       string
	row      int
	from, to grid.Day
}

func holderOf(held []placement, row int, d grid.Day) string {
	for _, p := range held {
		if p.row == row && p.from <= d && d <= p.to {
			return p.id
		}
	}
	return ""
}
