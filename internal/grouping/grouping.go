// Package grouping maps events onto the keys the packing engine scopes its
// sessions by: week ids for the month view, resource ids for the resource
// view.
package grouping

import (
	"calgrid/internal/grid"
	"calgrid/internal/model"
)

// WeekIDs returns, in order and without duplicates, the ids of every week
// the inclusive day range [start, end] touches under ws. Each id is the
// YYYY-MM-DD of the week's first day. An inverted range touches no weeks.
//
// The walk is per day; spans are bounded by what a calendar screen shows.
func WeekIDs(start, end grid.Day, ws grid.WeekStart) []string {
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for d := start; d <= end; d++ {
		id := grid.WeekID(d, ws)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ByWeek buckets events under every week they are visible in. Within a
// bucket events keep their input order. Inverted events are dropped, and
// events sharing an ID are collapsed as in ByResource, since a packed week
// reports one row per ID.
func ByWeek(events []model.Event, ws grid.WeekStart) map[string][]model.Event {
	out := make(map[string][]model.Event)
	for _, ev := range Latest(events) {
		for _, id := range WeekIDs(ev.StartDay(), ev.EndDay(), ws) {
			out[id] = append(out[id], ev)
		}
	}
	return out
}

// ByResource buckets events by ResourceID after collapsing duplicate IDs
// with Latest. This absorbs duplicates delivered by overlapping upstream
// refreshes.
func ByResource(events []model.Event) map[string][]model.Event {
	out := make(map[string][]model.Event)
	for _, ev := range Latest(events) {
		out[ev.ResourceID] = append(out[ev.ResourceID], ev)
	}
	return out
}

// Latest collapses events sharing an ID, the last one winning. The
// collapsed event keeps the position of the first occurrence of its ID.
func Latest(events []model.Event) []model.Event {
	latest := make(map[string]model.Event, len(events))
	order := make([]string, 0, len(events))
	for _, ev := range events {
		if _, ok := latest[ev.ID]; !ok {
			order = append(order, ev.ID)
		}
		latest[ev.ID] = ev
	}

	out := make([]model.Event, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}
