package model

import (
	"time"

	"calgrid/internal/grid"
)

// Event is a date-ranged calendar entry as the layout engine sees it.
//
// Only ID, ResourceID, Start and End drive layout. Start and End are read at
// day granularity: End is inclusive, so an event on a single day has
// StartDay() == EndDay(). The visual attributes pass through untouched for
// the renderer.
type Event struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id,omitempty"`
	Title      string `json:"title"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	BackgroundColor string `json:"background_color,omitempty"`
	BorderColor     string `json:"border_color,omitempty"`
	Color           string `json:"color,omitempty"`
	BorderStyle     string `json:"border_style,omitempty"` // solid, dashed or dotted
	BorderWidth     int    `json:"border_width,omitempty"`
	BorderRadius    int    `json:"border_radius,omitempty"`
}

func (e Event) StartDay() grid.Day { return grid.DayOf(e.Start) }
func (e Event) EndDay() grid.Day   { return grid.DayOf(e.End) }

// Inverted reports whether the event ends on a day before it starts. Such
// events take up no space in a layout.
func (e Event) Inverted() bool {
	return e.EndDay() < e.StartDay()
}

// Resource is one row of the resource (timeline) view.
type Resource struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}
