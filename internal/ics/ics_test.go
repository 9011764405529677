package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"calgrid/internal/grid"
)

func calendar(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//calgrid//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

var testFeed = calendar(
	"BEGIN:VEVENT",
	"UID:standup@example.com",
	"DTSTAMP:20250801T000000Z",
	"DTSTART:20250901T090000Z",
	"DTEND:20250901T093000Z",
	"RRULE:FREQ=DAILY;COUNT=3",
	"SUMMARY:Standup",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:offsite@example.com",
	"DTSTAMP:20250801T000000Z",
	"DTSTART:20250905T080000Z",
	"DTEND:20250907T170000Z",
	"SUMMARY:Offsite",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTAMP:20250801T000000Z",
	"DTSTART:20250905T080000Z",
	"SUMMARY:No UID",
	"END:VEVENT",
)

var september = ExpandConfig{
	DisplayLocation: time.UTC,
	RangeStart:      time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	RangeEnd:        time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
}

func TestParseExpandConvert(t *testing.T) {
	src := Source{ID: "team", URL: "https://example.com/team.ics", ResourceID: "room-a", Color: "#336699"}
	parsed, err := ParseICS(src, testFeed)
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed %d events, want 2 (event without UID skipped)", len(parsed))
	}

	res, err := ExpandOccurrences(parsed, september)
	if err != nil {
		t.Fatalf("ExpandOccurrences: %v", err)
	}

	type row struct {
		Title      string
		Start, End string
	}
	var got []row
	ids := make(map[string]bool)
	for _, ev := range ToEvents(res.Occurrences) {
		got = append(got, row{ev.Title, ev.StartDay().String(), ev.EndDay().String()})
		ids[ev.ID] = true
		if ev.ResourceID != "room-a" || ev.BackgroundColor != "#336699" {
			t.Errorf("source attributes not carried: %+v", ev)
		}
	}
	want := []row{
		{"Standup", "2025-09-01", "2025-09-01"},
		{"Standup", "2025-09-02", "2025-09-02"},
		{"Standup", "2025-09-03", "2025-09-03"},
		{"Offsite", "2025-09-05", "2025-09-07"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if len(ids) != 4 {
		t.Errorf("got %d distinct ids, want 4", len(ids))
	}
}

func TestExpandOverridesAndExDates(t *testing.T) {
	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	moved := start.AddDate(0, 0, 1)
	base := ParsedEvent{
		UID:      "r",
		Summary:  "Review",
		Start:    start,
		End:      start.Add(time.Hour),
		RawRRule: "FREQ=DAILY;COUNT=4",
		ExDates:  []time.Time{start.AddDate(0, 0, 3)},
	}
	override := ParsedEvent{
		UID:        "r",
		Summary:    "Review (moved)",
		Start:      moved.Add(5 * time.Hour),
		End:        moved.Add(6 * time.Hour),
		Recurrence: &moved,
		IsOverride: true,
	}

	res, err := ExpandOccurrences([]ParsedEvent{base, override}, september)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, occ := range res.Occurrences {
		got = append(got, occ.Start.Format("01-02 15:04")+" "+occ.Summary)
	}
	want := []string{
		"09-01 10:00 Review",
		"09-02 15:00 Review (moved)",
		"09-03 10:00 Review",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("occurrences mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandCap(t *testing.T) {
	ev := ParsedEvent{
		UID:      "many",
		Start:    september.RangeStart,
		End:      september.RangeStart.Add(time.Minute),
		RawRRule: "FREQ=HOURLY",
	}
	cfg := september
	cfg.MaxOccurrencesPerEvent = 10
	res, err := ExpandOccurrences([]ParsedEvent{ev}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Occurrences) != 10 || !cmp.Equal(res.TruncatedEvents, []string{"many"}) {
		t.Errorf("got %d occurrences, truncated %v", len(res.Occurrences), res.TruncatedEvents)
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	cfg := ExpandConfig{RangeStart: september.RangeEnd, RangeEnd: september.RangeStart}
	if _, err := ExpandOccurrences(nil, cfg); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestToEventsInclusiveEnd(t *testing.T) {
	day := time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)
	evs := ToEvents([]Occurrence{
		{UID: "allday", AllDay: true, Start: day, End: day.AddDate(0, 0, 2)},
		{UID: "instant", Start: day.Add(9 * time.Hour), End: day.Add(9 * time.Hour)},
	})
	if got := evs[0].EndDay(); got != grid.Date(2025, 9, 6) {
		t.Errorf("all-day end = %s, want 2025-09-06", got)
	}
	if got := evs[1].EndDay(); got != grid.Date(2025, 9, 5) {
		t.Errorf("instant end = %s", got)
	}
	if EventID("s", "u", "k") != EventID("s", "u", "k") || EventID("s", "u", "k") == EventID("s", "u", "k2") {
		t.Error("EventID is not a stable function of its inputs")
	}
}

func TestFetcherCaching(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	var conditional atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Store(true)
		}
		switch code := int(status.Load()); code {
		case http.StatusOK:
			w.Header().Set("ETag", `"v1"`)
			_, _ = w.Write(testFeed)
		default:
			w.WriteHeader(code)
		}
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "feed", URL: srv.URL + "/private/feed.ics"}
	ctx := context.Background()

	res, err := f.FetchOne(ctx, src)
	if err != nil || res.FromCache || len(res.Body) == 0 {
		t.Fatalf("first fetch = %+v, %v", res, err)
	}

	status.Store(http.StatusNotModified)
	res, err = f.FetchOne(ctx, src)
	if err != nil || !res.FromCache || string(res.Body) != string(testFeed) {
		t.Fatalf("304 fetch = fromCache %v, %v", res.FromCache, err)
	}
	if !conditional.Load() {
		t.Error("ETag was not sent back")
	}

	status.Store(http.StatusInternalServerError)
	res, err = f.FetchOne(ctx, src)
	if err != nil || !res.FromCache {
		t.Fatalf("500 fetch = fromCache %v, %v", res.FromCache, err)
	}

	fresh := NewFetcher(t.TempDir())
	if _, err := fresh.FetchOne(ctx, src); err == nil {
		t.Error("500 without cache should fail")
	}
}

func TestFetchAllKeepsOrderAndCollectsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testFeed)
	}))
	defer srv.Close()

	sources := []Source{
		{ID: "a", URL: srv.URL + "/a.ics"},
		{ID: "broken"},
		{ID: "c", URL: srv.URL + "/c.ics"},
	}
	results, errs := NewFetcher(t.TempDir()).FetchAll(context.Background(), sources)
	if len(results) != 2 || results[0].Source.ID != "a" || results[1].Source.ID != "c" {
		t.Errorf("results = %+v", results)
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "broken") {
		t.Errorf("errs = %v", errs)
	}
}

func TestRedactURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com/private/abc.ics?token=x": "https://example.com/...(redacted)",
		"webcal://cal.example.org/feed":               "webcal://cal.example.org/...(redacted)",
		"not a url":                                   "ics://...(redacted)",
	}
	for in, want := range tests {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}
