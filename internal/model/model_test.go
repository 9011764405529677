package model

import (
	"testing"
	"time"

	"calgrid/internal/grid"
)

func TestEventDays(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		from, to grid.Day
		inverted bool
	}{
		{"same day", time.Date(2025, 9, 1, 9, 0, 0, 0, loc), time.Date(2025, 9, 1, 18, 0, 0, 0, loc), grid.Date(2025, 9, 1), grid.Date(2025, 9, 1), false},
		{"time of day ignored", time.Date(2025, 9, 1, 23, 0, 0, 0, loc), time.Date(2025, 9, 3, 1, 0, 0, 0, loc), grid.Date(2025, 9, 1), grid.Date(2025, 9, 3), false},
		{"inverted", time.Date(2025, 9, 3, 0, 0, 0, 0, loc), time.Date(2025, 9, 1, 0, 0, 0, 0, loc), grid.Date(2025, 9, 3), grid.Date(2025, 9, 1), true},
		{"same day end before start", time.Date(2025, 9, 1, 18, 0, 0, 0, loc), time.Date(2025, 9, 1, 9, 0, 0, 0, loc), grid.Date(2025, 9, 1), grid.Date(2025, 9, 1), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev := Event{ID: "e", Start: tc.start, End: tc.end}
			if ev.StartDay() != tc.from || ev.EndDay() != tc.to {
				t.Errorf("days = %s..%s, want %s..%s", ev.StartDay(), ev.EndDay(), tc.from, tc.to)
			}
			if got := ev.Inverted(); got != tc.inverted {
				t.Errorf("Inverted() = %v, want %v", got, tc.inverted)
			}
		})
	}
}
