package trends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"researchpub/internal/core"
	"researchpub/internal/logger"

	"github.com/rs/zerolog"
)

// DefaultInterval is the minimum spacing between discovery runs.
const DefaultInterval = 24 * time.Hour

// ErrNotDue is returned by Scheduler.Run when the last successful discovery is
// more recent than the interval.
var ErrNotDue = errors.New("trend discovery ran recently")

// RunHistory persists discovery runs. The store implements it.
type RunHistory interface {
	ListRuns(ctx context.Context, kind string, limit int) ([]*core.Run, error)
	RecordRun(ctx context.Context, r *core.Run) error
}

// Scheduler gates discovery to at most one successful run per interval.
type Scheduler struct {
	discoverer *Discoverer
	history    RunHistory
	interval   time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewScheduler creates a scheduler. A non-positive interval uses DefaultInterval.
func NewScheduler(d *Discoverer, history RunHistory, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		discoverer: d,
		history:    history,
		interval:   interval,
		now:        time.Now,
		log:        logger.Component("trends.scheduler"),
	}
}

// LastRun returns the start time of the most recent successful discovery,
// zero when there is none.
func (s *Scheduler) LastRun(ctx context.Context) (time.Time, error) {
	runs, err := s.history.ListRuns(ctx, core.RunKindTrends, 0)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load trend history: %w", err)
	}
	for _, r := range runs {
		if r.Failed == 0 {
			return r.StartedAt, nil
		}
	}
	return time.Time{}, nil
}

// Due reports whether more than the interval has passed since the last
// successful discovery, and when the next one is allowed.
func (s *Scheduler) Due(ctx context.Context) (bool, time.Time, error) {
	last, err := s.LastRun(ctx)
	if err != nil {
		return false, time.Time{}, err
	}
	if last.IsZero() {
		return true, s.now().UTC(), nil
	}
	next := last.Add(s.interval)
	return s.now().Sub(last) > s.interval, next, nil
}

// Run discovers trends unless the interval has not passed, in which case it
// returns ErrNotDue. force skips the interval check. Every attempt is recorded.
func (s *Scheduler) Run(ctx context.Context, recent []*core.ContentItem, force bool) (*Report, error) {
	if !force {
		due, next, err := s.Due(ctx)
		if err != nil {
			return nil, err
		}
		if !due {
			s.log.Info().Time("next", next).Msg("Skipping trend discovery, ran recently")
			return nil, fmt.Errorf("%w: next run after %s", ErrNotDue, next.Local().Format("2006-01-02 15:04"))
		}
	}

	run := &core.Run{Kind: core.RunKindTrends, StartedAt: s.now().UTC()}
	report, err := s.discoverer.Discover(ctx, recent)

	run.FinishedAt = s.now().UTC()
	run.Processed = len(recent)
	if err != nil {
		run.Failed = 1
		run.Notes = err.Error()
	} else {
		run.Succeeded = len(report.Trends)
		run.Notes = report.Recommendation
	}
	if recErr := s.history.RecordRun(ctx, run); recErr != nil {
		s.log.Warn().Err(recErr).Msg("Failed to record trend discovery run")
	}

	if err != nil {
		return nil, err
	}
	return report, nil
}
