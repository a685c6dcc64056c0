package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/queue"
)

// Aggregator is the slice of the aggregation engine the runner drives
type Aggregator interface {
	AggregateAll(ctx context.Context, companyID string, bucket time.Time) error
	AggregatePipelineMetrics(ctx context.Context, companyID string, bucket time.Time) error
	AggregateSourcePerformance(ctx context.Context, companyID string, bucket time.Time) error
	AggregateDiversityMetrics(ctx context.Context, companyID string, bucket time.Time) error
}

// Runner executes aggregation jobs for parsed trigger envelopes. A failed run
// is nacked and redelivered by SQS; re-running a trigger is safe because
// metric upserts are idempotent.
type Runner struct {
	aggregator Aggregator
	now        func() time.Time
	log        *zap.Logger
}

// NewRunner creates a new trigger runner
func NewRunner(aggregator Aggregator, log *zap.Logger) *Runner {
	return &Runner{
		aggregator: aggregator,
		now:        time.Now,
		log:        log,
	}
}

// Start begins processing envelopes from the input channel
func (r *Runner) Start(ctx context.Context, in <-chan *Envelope) {
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Runner shutting down")
			return
		case env, ok := <-in:
			if !ok {
				r.log.Info("Runner input channel closed")
				return
			}
			r.process(ctx, env)
		}
	}
}

func (r *Runner) process(ctx context.Context, env *Envelope) {
	trigger := env.Trigger
	bucket, err := r.resolveBucket(trigger)
	if err != nil {
		r.log.Warn("Dropping trigger with invalid date bucket",
			zap.String("date_bucket", trigger.DateBucket),
			zap.Error(err))
		if err := env.Ack(ctx); err != nil {
			r.log.Error("Failed to ack invalid trigger", zap.Error(err))
		}
		return
	}

	if err := r.execute(ctx, trigger, bucket); err != nil {
		r.log.Error("Aggregation run failed",
			zap.String("job_type", trigger.JobType),
			zap.String("company_id", trigger.CompanyID),
			zap.Time("date_bucket", bucket),
			zap.Error(err))
		if err := env.Nack(ctx); err != nil {
			r.log.Error("Failed to nack envelope", zap.Error(err))
		}
		return
	}

	r.log.Info("Aggregation run completed",
		zap.String("job_type", trigger.JobType),
		zap.String("company_id", trigger.CompanyID),
		zap.Time("date_bucket", bucket))
	if err := env.Ack(ctx); err != nil {
		r.log.Error("Failed to ack envelope", zap.Error(err))
	}
}

func (r *Runner) execute(ctx context.Context, trigger *queue.TriggerMessage, bucket time.Time) error {
	switch trigger.JobType {
	case "pipeline":
		return r.aggregator.AggregatePipelineMetrics(ctx, trigger.CompanyID, bucket)
	case "sources":
		return r.aggregator.AggregateSourcePerformance(ctx, trigger.CompanyID, bucket)
	case "diversity":
		return r.aggregator.AggregateDiversityMetrics(ctx, trigger.CompanyID, bucket)
	default:
		return r.aggregator.AggregateAll(ctx, trigger.CompanyID, bucket)
	}
}

func (r *Runner) resolveBucket(trigger *queue.TriggerMessage) (time.Time, error) {
	if trigger.DateBucket == "" {
		return r.now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", trigger.DateBucket)
}
