package ics

import (
	"time"

	"github.com/google/uuid"

	"calgrid/internal/model"
)

// eventNamespace scopes the name-based UUIDs given to occurrences.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("calgrid:event"))

// EventID returns a stable id for one occurrence. The same source, UID and
// instance always map to the same id, so repeated refreshes of a feed keep
// ids (and therefore de-duplication) stable.
func EventID(sourceID, uid, instanceKey string) string {
	name := sourceID + "\x00" + uid + "\x00" + instanceKey
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// ToEvents converts occurrences into layout events.
//
// Occurrence ends are exclusive instants while event ends are inclusive
// days, so an end falling exactly on midnight (all-day events, or timed
// events running to the end of a day) closes on the previous day.
func ToEvents(occs []Occurrence) []model.Event {
	out := make([]model.Event, 0, len(occs))
	for _, occ := range occs {
		end := occ.End
		if end.After(occ.Start) {
			end = end.Add(-time.Nanosecond)
		} else {
			end = occ.Start
		}
		out = append(out, model.Event{
			ID:              EventID(occ.Source.ID, occ.UID, occ.InstanceKey),
			ResourceID:      occ.Source.ResourceID,
			Title:           occ.Summary,
			Start:           occ.Start,
			End:             end,
			BackgroundColor: occ.Source.Color,
			BorderColor:     occ.Source.Color,
		})
	}
	return out
}
