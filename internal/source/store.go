// Package source keeps the current set of layout events, refreshed from the
// configured ICS feeds.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"calgrid/internal/config"
	"calgrid/internal/ics"
	appLog "calgrid/internal/log"
	"calgrid/internal/model"
)

// Snapshot is one refresh worth of events.
type Snapshot struct {
	Events     []model.Event `json:"events"`
	Truncated  []string      `json:"truncated_uids,omitempty"`
	RangeStart time.Time     `json:"range_start"`
	RangeEnd   time.Time     `json:"range_end"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Store holds the latest Snapshot. Readers always see a complete snapshot;
// Refresh builds the next one off to the side and swaps it in.
type Store struct {
	cfg     *config.Config
	fetcher *ics.Fetcher
	now     func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	// refreshMu keeps two refreshes from racing each other.
	refreshMu sync.Mutex
}

// NewStore creates an empty store for cfg's feeds.
func NewStore(cfg *config.Config) *Store {
	return &Store{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cfg.CacheDir),
		now:     time.Now,
		snap:    Snapshot{Events: []model.Event{}},
	}
}

// Snapshot returns the current snapshot. The events slice is a copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Events = append([]model.Event(nil), s.snap.Events...)
	return out
}

// Events returns a copy of the current events.
func (s *Store) Events() []model.Event {
	return s.Snapshot().Events
}

// Sources builds fetcher sources from the configured feeds.
func Sources(cfg *config.Config) []ics.Source {
	out := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		out = append(out, ics.Source{
			ID:         c.ID,
			URL:        c.URL,
			ResourceID: c.ResourceID,
			Color:      c.Color,
		})
	}
	return out
}

// Refresh fetches every feed, expands recurrences over
// [today-backfill, today+horizon] in the configured timezone, and swaps the
// result in. A feed that fails is logged and left out; the refresh only
// fails when expansion does, in which case the previous snapshot is kept.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	loc := s.cfg.Location()
	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	rangeStart := today.AddDate(0, 0, -s.cfg.BackfillDays)
	rangeEnd := today.AddDate(0, 0, s.cfg.HorizonDays)

	sources := Sources(s.cfg)
	appLog.Info("refresh start",
		"sources", len(sources),
		"range_start", rangeStart.Format(time.DateOnly),
		"range_end", rangeEnd.Format(time.DateOnly),
		"timezone", loc.String(),
	)

	results, fetchErrs := s.fetcher.FetchAll(ctx, sources)
	if len(fetchErrs) > 0 {
		appLog.Error("refresh: one or more feeds failed", errors.Join(fetchErrs...), "error_count", len(fetchErrs))
	}

	parsed := make([]ics.ParsedEvent, 0)
	for _, res := range results {
		evs, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("refresh: parse failed for source", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, evs...)
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return fmt.Errorf("refresh: expand: %w", err)
	}

	next := Snapshot{
		Events:     ics.ToEvents(expanded.Occurrences),
		Truncated:  expanded.TruncatedEvents,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		UpdatedAt:  s.now(),
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	appLog.Info("refresh done", "events", len(next.Events), "feeds_ok", len(results), "feeds_failed", len(fetchErrs))
	return nil
}
