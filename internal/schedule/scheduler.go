// Package schedule owns the two triggers of the cleaning pipeline: the
// periodic scheduler and the insertion hook. Neither contains cleaning
// logic; both call into the one mutex-guarded pipeline entry point.
package schedule

import (
	"context"
	"log"
	"time"

	"github.com/income-clean/internal/pipeline"
	"github.com/income-clean/internal/store"
)

// Scheduler fires a full cleaning run on a fixed period.
type Scheduler struct {
	pipe     *pipeline.Pipeline
	state    store.RunStateStore
	interval time.Duration
	catchUp  bool
}

// DefaultInterval is the 30-day period used when none is configured.
const DefaultInterval = 720 * time.Hour

func NewScheduler(pipe *pipeline.Pipeline, state store.RunStateStore, interval time.Duration, catchUp bool) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{pipe: pipe, state: state, interval: interval, catchUp: catchUp}
}

// Run blocks until ctx is cancelled, firing a full pipeline run every
// interval. With catch-up enabled, a startup where at least one interval
// elapsed since the recorded last run fires exactly one immediate run — one,
// no matter how many fires were missed, so a long outage never causes a
// backlog storm. Run errors are logged; the next tick retries.
func (s *Scheduler) Run(ctx context.Context) {
	if s.catchUp && s.overdue(ctx) {
		s.fire(ctx, "catch-up")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, "interval")
		}
	}
}

func (s *Scheduler) overdue(ctx context.Context) bool {
	if s.state == nil {
		return true
	}
	last, ok, err := s.state.LastRun(ctx)
	if err != nil {
		log.Printf("scheduler: cannot read last run time: %v", err)
		return false
	}
	if !ok {
		return true
	}
	return time.Since(last) >= s.interval
}

func (s *Scheduler) fire(ctx context.Context, cause string) {
	rep, err := s.pipe.Run(ctx)
	if err != nil {
		log.Printf("scheduled run (%s) failed: %v", cause, err)
		return
	}
	log.Printf("scheduled run (%s): copied=%d skipped=%d removed=%d normalized=%d in %v",
		cause, rep.Copied, rep.Skipped, rep.DuplicatesRemoved, rep.Normalized, rep.Duration)
}
