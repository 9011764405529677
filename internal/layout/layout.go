// Package layout composes the grid, grouping and packing steps into the two
// calendar views: a month grid packed week by week, and a resource timeline
// packed row by row.
package layout

import (
	"calgrid/internal/grid"
	"calgrid/internal/grouping"
	appLog "calgrid/internal/log"
	"calgrid/internal/model"
	"calgrid/internal/packing"
)

// MonthView is the layout of one month panel.
type MonthView struct {
	Month     grid.YearMonth `json:"month"`
	WeekStart grid.WeekStart `json:"week_start"`
	Start     grid.Day       `json:"start"`
	End       grid.Day       `json:"end"`
	// Weeks holds one packing session per grid row, keyed by week id.
	Weeks []packing.Layout `json:"weeks"`
}

// Month lays out the padded grid of anchor's month.
//
// Each week is its own packing session, so an event crossing a week boundary
// is packed independently on both sides and may sit on a different row in
// each week.
func Month(anchor grid.Day, ws grid.WeekStart, events []model.Event) MonthView {
	weeks := grid.MonthWeeks(anchor, ws)
	byWeek := grouping.ByWeek(events, ws)

	view := MonthView{
		Month:     grid.MonthOf(anchor),
		WeekStart: ws,
		Start:     grid.MonthlyStartDate(anchor, ws),
		End:       grid.MonthlyEndDate(anchor, ws),
		Weeks:     make([]packing.Layout, 0, len(weeks)),
	}

	p := packing.NewPacker()
	for _, w := range weeks {
		view.Weeks = append(view.Weeks, p.Pack(w.ID, w.Days, byWeek[w.ID]))
	}

	appLog.Debug("month layout computed",
		"month", view.Month.String(),
		"week_start", ws.String(),
		"weeks", len(view.Weeks),
		"events", len(events),
	)
	return view
}

// ResourceRow is one resource's packed timeline.
type ResourceRow struct {
	Resource model.Resource `json:"resource"`
	Layout   packing.Layout `json:"layout"`
}

// ResourceView is the layout of the resource timeline over [From, To].
type ResourceView struct {
	From   grid.Day          `json:"from"`
	To     grid.Day          `json:"to"`
	Days   []grid.Day        `json:"days"`
	Months []grid.MonthGroup `json:"months"`
	Rows   []ResourceRow     `json:"rows"`
}

// Resources lays out events per resource across the whole range. Every
// resource is one session spanning all days, so an event keeps its row for
// its entire visible duration. Rows follow the order of resources; events
// for resources not listed are left out. An inverted range yields no days.
func Resources(from, to grid.Day, resources []model.Resource, events []model.Event) ResourceView {
	days := grid.GenerateDates(from, to)
	byResource := grouping.ByResource(events)

	view := ResourceView{
		From:   from,
		To:     to,
		Days:   days,
		Months: grid.GroupDatesByMonth(days),
		Rows:   make([]ResourceRow, 0, len(resources)),
	}
	for _, r := range resources {
		view.Rows = append(view.Rows, ResourceRow{
			Resource: r,
			Layout:   packing.Pack(r.ID, days, byResource[r.ID]),
		})
	}

	appLog.Debug("resource layout computed",
		"from", from.String(),
		"to", to.String(),
		"resources", len(resources),
		"events", len(events),
	)
	return view
}

// Reschedule moves ev so that it starts on newStart, shifting the end by
// the same number of days. Time of day and duration are kept.
func Reschedule(ev model.Event, newStart grid.Day) model.Event {
	delta := newStart.Sub(ev.StartDay())
	ev.Start = ev.Start.AddDate(0, 0, delta)
	ev.End = ev.End.AddDate(0, 0, delta)
	return ev
}
