package source

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "calgrid/internal/log"
)

const refreshTimeout = 2 * time.Minute

// Refresher is anything the scheduler can refresh.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs a Refresher on a standard 5-field cron spec.
type Scheduler struct {
	c   *cron.Cron
	ctx context.Context
}

// NewScheduler registers r under spec. Jobs that are still running when the
// next tick fires are skipped rather than queued. Each run gets a context
// derived from ctx, so cancelling ctx aborts an in-flight refresh.
func NewScheduler(ctx context.Context, spec string, r Refresher) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{c: c, ctx: ctx}

	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(s.ctx, refreshTimeout)
		defer cancel()
		if err := r.Refresh(runCtx); err != nil {
			appLog.Error("scheduled refresh failed", err, "spec", spec)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler: spec %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.c.Start()
	appLog.Info("scheduler started", "next", s.Next().Format(time.RFC3339))
}

// Stop stops the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
	appLog.Info("scheduler stopped")
}

// Next reports when the job fires next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
