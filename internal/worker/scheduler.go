package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SchedulerConfig configures the daily aggregation schedule
type SchedulerConfig struct {
	// HourUTC is the UTC hour of day at which the full refresh runs.
	HourUTC int
	// LookbackDays is how many day buckets before the run day are
	// re-aggregated, so late status changes still land in their bucket.
	LookbackDays int
}

// Scheduler runs a full aggregation for every company once a day
type Scheduler struct {
	aggregator Aggregator
	config     SchedulerConfig
	now        func() time.Time
	log        *zap.Logger
}

// NewScheduler creates a new daily scheduler
func NewScheduler(aggregator Aggregator, cfg SchedulerConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{
		aggregator: aggregator,
		config:     cfg,
		now:        time.Now,
		log:        log,
	}
}

// Start blocks until ctx is cancelled, firing a full refresh at the
// configured hour each day.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.nextRun(s.now().UTC())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Scheduler shutting down")
			return
		case <-timer.C:
			s.runOnce(ctx, next)
		}
	}
}

// runOnce aggregates the run day plus the configured lookback window
func (s *Scheduler) runOnce(ctx context.Context, runAt time.Time) {
	day := runAt.UTC().Truncate(24 * time.Hour)
	for back := 0; back <= s.config.LookbackDays; back++ {
		bucket := day.AddDate(0, 0, -back)
		s.log.Info("Scheduled aggregation starting", zap.Time("date_bucket", bucket))
		if err := s.aggregator.AggregateAll(ctx, "", bucket); err != nil {
			s.log.Error("Scheduled aggregation failed",
				zap.Time("date_bucket", bucket),
				zap.Error(err))
		}
	}
}

// nextRun returns the next occurrence of the configured hour strictly after now
func (s *Scheduler) nextRun(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), s.config.HourUTC, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}
