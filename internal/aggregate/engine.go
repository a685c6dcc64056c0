// Package aggregate recomputes the derived metric rows from the raw
// application read models. Every aggregation is idempotent: re-running for
// the same (company, date bucket) overwrites the prior row via upsert.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/stats"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/telemetry"
)

// QualifiedFitScore is the minimum fit score for a candidate to count as
// qualified in source performance.
const QualifiedFitScore = 70.0

// Engine turns raw application records for one date bucket into metric rows.
type Engine struct {
	reader  repository.ApplicationReader
	store   repository.MetricsStore
	locks   *identityLocks
	metrics *telemetry.Metrics
	log     *zap.Logger
}

// NewEngine creates a new aggregation engine
func NewEngine(reader repository.ApplicationReader, store repository.MetricsStore, metrics *telemetry.Metrics, log *zap.Logger) *Engine {
	return &Engine{
		reader:  reader,
		store:   store,
		locks:   newIdentityLocks(),
		metrics: metrics,
		log:     log,
	}
}

// BucketWindow returns the [start, end) day window of a date bucket.
func BucketWindow(bucket time.Time) (time.Time, time.Time) {
	start := bucket.UTC().Truncate(24 * time.Hour)
	return start, start.Add(24 * time.Hour)
}

// companiesInScope resolves the company fan-out: the single requested
// company, or every company with applications.
func (e *Engine) companiesInScope(ctx context.Context, companyID string) ([]string, error) {
	if companyID != "" {
		return []string{companyID}, nil
	}
	companies, err := e.reader.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// AggregateAll runs the three aggregations in sequence for one date bucket.
func (e *Engine) AggregateAll(ctx context.Context, companyID string, bucket time.Time) error {
	if err := e.AggregatePipelineMetrics(ctx, companyID, bucket); err != nil {
		return err
	}
	if err := e.AggregateSourcePerformance(ctx, companyID, bucket); err != nil {
		return err
	}
	return e.AggregateDiversityMetrics(ctx, companyID, bucket)
}

// AggregatePipelineMetrics recomputes the per-job pipeline rows and the
// company-wide rollup row for one date bucket. The rollup is recomputed from
// a company-scoped query rather than by summing the per-job rows, so jobs
// added after a prior run cannot be double-counted. A failure for one
// company aborts the remaining fan-out.
func (e *Engine) AggregatePipelineMetrics(ctx context.Context, companyID string, bucket time.Time) error {
	return e.run(ctx, "pipeline", companyID, bucket, e.aggregatePipelineCompany)
}

// AggregateSourcePerformance recomputes the per-source rows for one date
// bucket. Candidates are attributed to a source through their first
// application in the window.
func (e *Engine) AggregateSourcePerformance(ctx context.Context, companyID string, bucket time.Time) error {
	return e.run(ctx, "source", companyID, bucket, e.aggregateSourceCompany)
}

// AggregateDiversityMetrics recomputes the per-job and company-wide
// demographic distribution rows for one date bucket.
func (e *Engine) AggregateDiversityMetrics(ctx context.Context, companyID string, bucket time.Time) error {
	return e.run(ctx, "diversity", companyID, bucket, e.aggregateDiversityCompany)
}

func (e *Engine) run(ctx context.Context, jobType, companyID string, bucket time.Time, fn func(context.Context, string, time.Time) error) error {
	started := time.Now()

	companies, err := e.companiesInScope(ctx, companyID)
	if err != nil {
		e.fail(jobType)
		return err
	}

	for _, company := range companies {
		if err := fn(ctx, company, bucket); err != nil {
			e.fail(jobType)
			e.log.Error("Aggregation failed",
				zap.String("job_type", jobType),
				zap.String("company_id", company),
				zap.Time("date_bucket", bucket),
				zap.Error(err))
			return fmt.Errorf("failed to aggregate %s metrics for company %s: %w", jobType, company, err)
		}
	}

	if e.metrics != nil {
		e.metrics.AggregationRuns.WithLabelValues(jobType).Inc()
		e.metrics.AggregationDuration.WithLabelValues(jobType).Observe(time.Since(started).Seconds())
	}
	e.log.Info("Aggregation completed",
		zap.String("job_type", jobType),
		zap.Int("companies", len(companies)),
		zap.Time("date_bucket", bucket),
		zap.Duration("duration", time.Since(started)))
	return nil
}

func (e *Engine) fail(jobType string) {
	if e.metrics != nil {
		e.metrics.AggregationFailures.WithLabelValues(jobType).Inc()
	}
}

func (e *Engine) aggregatePipelineCompany(ctx context.Context, companyID string, bucket time.Time) error {
	from, to := BucketWindow(bucket)

	jobs, err := e.reader.ListJobs(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	for _, job := range jobs {
		apps, err := e.reader.ListApplications(ctx, repository.ApplicationFilter{
			CompanyID: companyID,
			JobID:     job.ID,
			From:      from,
			To:        to,
		})
		if err != nil {
			return fmt.Errorf("failed to list applications for job %s: %w", job.ID, err)
		}

		row := foldPipeline(apps, companyID, job.ID, from)
		if err := e.upsertPipeline(ctx, row); err != nil {
			return err
		}
	}

	// Company-wide rollup from a fresh company-scoped query.
	apps, err := e.reader.ListApplications(ctx, repository.ApplicationFilter{
		CompanyID: companyID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return fmt.Errorf("failed to list company applications: %w", err)
	}
	return e.upsertPipeline(ctx, foldPipeline(apps, companyID, "", from))
}

func (e *Engine) upsertPipeline(ctx context.Context, row *domain.PipelineMetricsRow) error {
	release := e.locks.acquire(row.Identity())
	defer release()
	if err := e.store.UpsertPipelineMetrics(ctx, row); err != nil {
		return fmt.Errorf("failed to upsert pipeline row for job %q: %w", row.JobID, err)
	}
	return nil
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func average(samples []float64) *float64 {
	if len(samples) == 0 {
		return nil
	}
	v := stats.Mean(samples)
	return &v
}

func foldPipeline(apps []*domain.ApplicationRecord, companyID, jobID string, bucket time.Time) *domain.PipelineMetricsRow {
	row := &domain.PipelineMetricsRow{
		CompanyID:         companyID,
		JobID:             jobID,
		DateBucket:        bucket,
		TotalApplications: len(apps),
	}

	var screenDays, interviewDays, offerDays, fillDays []float64

	for _, app := range apps {
		elapsed := daysBetween(app.AppliedAt, app.LastUpdated)

		switch app.Status {
		case domain.StatusScreening:
			row.ApplicationsScreened++
			screenDays = append(screenDays, elapsed)
		case domain.StatusShortlisted:
			row.Shortlisted++
		case domain.StatusInterviewScheduled:
			row.InterviewsScheduled++
			interviewDays = append(interviewDays, elapsed)
		case domain.StatusInterviewCompleted:
			row.InterviewsCompleted++
			interviewDays = append(interviewDays, elapsed)
		case domain.StatusOfferExtended:
			row.OffersExtended++
			offerDays = append(offerDays, elapsed)
		case domain.StatusOfferAccepted:
			row.OffersAccepted++
			offerDays = append(offerDays, elapsed)
		case domain.StatusHired:
			row.CandidatesHired++
			fillDays = append(fillDays, elapsed)
		case domain.StatusRejected:
			row.CandidatesRejected++
		}
	}

	row.AvgDaysToScreen = average(screenDays)
	row.AvgDaysToInterview = average(interviewDays)
	row.AvgDaysToOffer = average(offerDays)
	row.AvgTimeToFill = average(fillDays)
	return row
}

func (e *Engine) aggregateSourceCompany(ctx context.Context, companyID string, bucket time.Time) error {
	from, to := BucketWindow(bucket)

	apps, err := e.reader.ListApplications(ctx, repository.ApplicationFilter{
		CompanyID: companyID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return fmt.Errorf("failed to list company applications: %w", err)
	}

	for _, row := range foldSources(apps, companyID, from) {
		release := e.locks.acquire(row.Identity())
		err := e.store.UpsertSourcePerformance(ctx, row)
		release()
		if err != nil {
			return fmt.Errorf("failed to upsert source row for %q: %w", row.Source, err)
		}
	}
	return nil
}

// firstApplications keeps the earliest application per candidate, so a
// candidate applying to several jobs is attributed to one source exactly
// once.
func firstApplications(apps []*domain.ApplicationRecord) []*domain.ApplicationRecord {
	first := make(map[string]*domain.ApplicationRecord)
	for _, app := range apps {
		cur, ok := first[app.CandidateID]
		if !ok || app.AppliedAt.Before(cur.AppliedAt) {
			first[app.CandidateID] = app
		}
	}
	out := make([]*domain.ApplicationRecord, 0, len(first))
	for _, app := range first {
		out = append(out, app)
	}
	return out
}

func foldSources(apps []*domain.ApplicationRecord, companyID string, bucket time.Time) []*domain.SourcePerformanceRow {
	type sourceAcc struct {
		total       int
		qualified   int
		interviewed int
		hired       int
		fitScores   []float64
		hireCost    float64
	}

	acc := make(map[string]*sourceAcc)
	for _, app := range firstApplications(apps) {
		source := app.Source
		if source == "" {
			source = "unknown"
		}
		a, ok := acc[source]
		if !ok {
			a = &sourceAcc{}
			acc[source] = a
		}

		a.total++
		a.fitScores = append(a.fitScores, app.FitScore)
		if app.FitScore >= QualifiedFitScore {
			a.qualified++
		}
		if app.Status.Interviewed() {
			a.interviewed++
		}
		if app.Status == domain.StatusHired {
			a.hired++
			a.hireCost += app.AcquisitionCost
		}
	}

	rows := make([]*domain.SourcePerformanceRow, 0, len(acc))
	for source, a := range acc {
		row := &domain.SourcePerformanceRow{
			CompanyID:             companyID,
			Source:                source,
			DateBucket:            bucket,
			TotalCandidates:       a.total,
			QualifiedCandidates:   a.qualified,
			InterviewedCandidates: a.interviewed,
			HiredCandidates:       a.hired,
			AvgQualityScore:       stats.Mean(a.fitScores),
		}
		if a.total > 0 {
			row.ConversionRate = float64(a.hired) / float64(a.total) * 100
		}
		if a.hired > 0 {
			row.AvgCostPerHire = a.hireCost / float64(a.hired)
		}
		if row.AvgCostPerHire > 0 {
			row.ROI = row.AvgQualityScore * row.ConversionRate / row.AvgCostPerHire
		}
		rows = append(rows, row)
	}
	return rows
}

func (e *Engine) aggregateDiversityCompany(ctx context.Context, companyID string, bucket time.Time) error {
	from, to := BucketWindow(bucket)

	apps, err := e.reader.ListApplications(ctx, repository.ApplicationFilter{
		CompanyID: companyID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return fmt.Errorf("failed to list company applications: %w", err)
	}

	byJob := make(map[string][]*domain.ApplicationRecord)
	for _, app := range apps {
		byJob[app.JobID] = append(byJob[app.JobID], app)
	}
	// The empty job key is the company-wide rollup across all applications.
	byJob[""] = apps

	for jobID, jobApps := range byJob {
		row := foldDiversity(jobApps, companyID, jobID, from)
		release := e.locks.acquire(row.Identity())
		err := e.store.UpsertDiversityMetrics(ctx, row)
		release()
		if err != nil {
			return fmt.Errorf("failed to upsert diversity row for job %q: %w", jobID, err)
		}
	}
	return nil
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func foldDiversity(apps []*domain.ApplicationRecord, companyID, jobID string, bucket time.Time) *domain.DiversityMetricsRow {
	row := &domain.DiversityMetricsRow{
		CompanyID:             companyID,
		JobID:                 jobID,
		DateBucket:            bucket,
		TotalApplicants:       len(apps),
		GenderDistribution:    domain.Distribution{},
		EthnicityDistribution: domain.Distribution{},
		AgeDistribution:       domain.Distribution{},
		EducationDistribution: domain.Distribution{},
		HiredGender:           domain.Distribution{},
		HiredEthnicity:        domain.Distribution{},
		HiredAge:              domain.Distribution{},
		HiredEducation:        domain.Distribution{},
	}

	for _, app := range apps {
		gender := orUnknown(app.Gender)
		ethnicity := orUnknown(app.Ethnicity)
		ageBucket := string(stats.CategorizeAge(app.Age))
		education := orUnknown(app.Education)

		row.GenderDistribution[gender]++
		row.EthnicityDistribution[ethnicity]++
		row.AgeDistribution[ageBucket]++
		row.EducationDistribution[education]++

		if app.Status == domain.StatusHired {
			row.HiredGender[gender]++
			row.HiredEthnicity[ethnicity]++
			row.HiredAge[ageBucket]++
			row.HiredEducation[education]++
		}
	}

	row.BiasIndicators = domain.BiasIndicators{
		Gender:    stats.CategoryBias(row.GenderDistribution, row.HiredGender),
		Ethnicity: stats.CategoryBias(row.EthnicityDistribution, row.HiredEthnicity),
		Age:       stats.CategoryBias(row.AgeDistribution, row.HiredAge),
		Education: stats.CategoryBias(row.EducationDistribution, row.HiredEducation),
	}
	return row
}
