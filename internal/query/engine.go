// Package query answers on-demand analytics questions by reading and
// combining the derived metric rows. Every operation returns a defined
// zero/empty result when no rows match; none of them error on empty data.
package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/stats"
)

// Bottleneck thresholds: a stage is flagged when it loses more than half of
// its candidates or holds them for more than a week.
const (
	bottleneckDropOffPct = 50.0
	bottleneckDwellDays  = 7.0
)

// TrendWindowDays is the default dashboard trend horizon.
const TrendWindowDays = 90

// BiasThresholds holds one alerting threshold per demographic axis
type BiasThresholds struct {
	Gender    float64
	Ethnicity float64
	Age       float64
	Education float64
}

// DefaultAlertThresholds is the policy applied when averaging stored bias
// indicators in the diversity analytics path.
func DefaultAlertThresholds() BiasThresholds {
	return BiasThresholds{Gender: 0.1, Ethnicity: 0.15, Age: 0.2, Education: 0.2}
}

// DefaultDetectionThresholds is the independent policy of the standalone
// bias-detection report, which scores hire-rate disparity rather than
// representational gaps. The two policies are deliberately not unified.
func DefaultDetectionThresholds() BiasThresholds {
	return BiasThresholds{Gender: 0.3, Ethnicity: 0.3, Age: 0.3, Education: 0.3}
}

// Engine reads metric rows (and, for the standalone bias report, raw
// application records) and combines them into reporting payloads.
type Engine struct {
	store               repository.MetricsStore
	reader              repository.ApplicationReader
	alertThresholds     BiasThresholds
	detectionThresholds BiasThresholds
	now                 func() time.Time
	log                 *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithAlertThresholds overrides the diversity alerting policy.
func WithAlertThresholds(t BiasThresholds) Option {
	return func(e *Engine) { e.alertThresholds = t }
}

// WithDetectionThresholds overrides the standalone bias-detection policy.
func WithDetectionThresholds(t BiasThresholds) Option {
	return func(e *Engine) { e.detectionThresholds = t }
}

// WithClock overrides the engine's time source for the trend window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a new query engine
func NewEngine(store repository.MetricsStore, reader repository.ApplicationReader, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:               store,
		reader:              reader,
		alertThresholds:     DefaultAlertThresholds(),
		detectionThresholds: DefaultDetectionThresholds(),
		now:                 time.Now,
		log:                 log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pipelineFilter maps an analytics query onto pipeline rows. Without a job
// filter only company-wide rollup rows are read, so per-job rows are never
// summed on top of their own rollup.
func pipelineFilter(q domain.AnalyticsQuery) repository.MetricsFilter {
	f := repository.MetricsFilter{
		CompanyID: q.CompanyID,
		JobID:     q.JobID,
	}
	if q.JobID == "" {
		f.RollupOnly = true
	}
	if q.StartDate != nil {
		f.From = *q.StartDate
	}
	if q.EndDate != nil {
		f.To = *q.EndDate
	}
	return f
}

func sourceFilter(q domain.AnalyticsQuery) repository.MetricsFilter {
	f := repository.MetricsFilter{
		CompanyID: q.CompanyID,
		Source:    q.Source,
	}
	if q.StartDate != nil {
		f.From = *q.StartDate
	}
	if q.EndDate != nil {
		f.To = *q.EndDate
	}
	return f
}

func pct(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

// pipelineTotals is the sum of a set of pipeline rows plus the collected
// row-level averages.
type pipelineTotals struct {
	applications int
	screened     int
	shortlisted  int
	scheduled    int
	completed    int
	offered      int
	accepted     int
	hired        int
	rejected     int

	screenDays    []float64
	interviewDays []float64
	offerDays     []float64
	fillDays      []float64
}

func sumPipeline(rows []*domain.PipelineMetricsRow) pipelineTotals {
	var t pipelineTotals
	for _, r := range rows {
		t.applications += r.TotalApplications
		t.screened += r.ApplicationsScreened
		t.shortlisted += r.Shortlisted
		t.scheduled += r.InterviewsScheduled
		t.completed += r.InterviewsCompleted
		t.offered += r.OffersExtended
		t.accepted += r.OffersAccepted
		t.hired += r.CandidatesHired
		t.rejected += r.CandidatesRejected

		if r.AvgDaysToScreen != nil {
			t.screenDays = append(t.screenDays, *r.AvgDaysToScreen)
		}
		if r.AvgDaysToInterview != nil {
			t.interviewDays = append(t.interviewDays, *r.AvgDaysToInterview)
		}
		if r.AvgDaysToOffer != nil {
			t.offerDays = append(t.offerDays, *r.AvgDaysToOffer)
		}
		if r.AvgTimeToFill != nil {
			t.fillDays = append(t.fillDays, *r.AvgTimeToFill)
		}
	}
	return t
}

// Summary returns the headline funnel view for the matching rows.
func (e *Engine) Summary(ctx context.Context, q domain.AnalyticsQuery) (domain.AnalyticsSummary, error) {
	rows, err := e.store.QueryPipelineMetrics(ctx, pipelineFilter(q))
	if err != nil {
		return domain.AnalyticsSummary{}, fmt.Errorf("failed to query pipeline metrics: %w", err)
	}

	t := sumPipeline(rows)
	return domain.AnalyticsSummary{
		TotalApplications: t.applications,
		TotalScreened:     t.screened,
		TotalShortlisted:  t.shortlisted,
		TotalHired:        t.hired,
		TotalRejected:     t.rejected,
		OverallConversion: pct(t.hired, t.applications),
		AverageTimeToFill: stats.Mean(t.fillDays),
	}, nil
}

// TimeToFill summarizes hiring latency over the matching rows. The
// average/median/min/max are computed over the stored row-level averages,
// not recomputed from raw per-application durations; the approximation is
// acceptable for dashboarding and kept for continuity of reported numbers.
func (e *Engine) TimeToFill(ctx context.Context, q domain.AnalyticsQuery) (domain.TimeToFillMetrics, error) {
	rows, err := e.store.QueryPipelineMetrics(ctx, pipelineFilter(q))
	if err != nil {
		return domain.TimeToFillMetrics{}, fmt.Errorf("failed to query pipeline metrics: %w", err)
	}

	t := sumPipeline(rows)
	out := domain.TimeToFillMetrics{
		TotalPositions:  t.applications,
		FilledPositions: t.hired,
		OpenPositions:   t.applications - t.hired,
	}

	if len(t.fillDays) == 0 {
		return out, nil
	}

	out.AverageDays = stats.Mean(t.fillDays)
	out.MedianDays = stats.Median(t.fillDays)
	out.MinDays = t.fillDays[0]
	out.MaxDays = t.fillDays[0]
	for _, v := range t.fillDays[1:] {
		if v < out.MinDays {
			out.MinDays = v
		}
		if v > out.MaxDays {
			out.MaxDays = v
		}
	}
	return out, nil
}

// ConversionRates sums the matching rows' stage counts and derives the five
// sequential funnel ratios plus the overall conversion, each as a
// percentage and each 0 when its denominator is 0.
func (e *Engine) ConversionRates(ctx context.Context, q domain.AnalyticsQuery) (domain.ConversionRates, error) {
	rows, err := e.store.QueryPipelineMetrics(ctx, pipelineFilter(q))
	if err != nil {
		return domain.ConversionRates{}, fmt.Errorf("failed to query pipeline metrics: %w", err)
	}

	t := sumPipeline(rows)
	return domain.ConversionRates{
		ApplicationToScreening: pct(t.screened, t.applications),
		ScreeningToShortlist:   pct(t.shortlisted, t.screened),
		ShortlistToInterview:   pct(t.scheduled, t.shortlisted),
		InterviewToOffer:       pct(t.offered, t.completed),
		OfferToHire:            pct(t.hired, t.offered),
		OverallConversion:      pct(t.hired, t.applications),
	}, nil
}

// buildStages assembles the six-stage pipeline view from summed counts and
// the averaged row-level dwell times. Stages without a recorded dwell
// milestone (applied, shortlisted) report 0.
func buildStages(t pipelineTotals) []domain.StageMetrics {
	interviewDwell := stats.Mean(t.interviewDays)
	return []domain.StageMetrics{
		{Stage: domain.StageApplied, Count: t.applications},
		{Stage: domain.StageScreening, Count: t.screened, AvgTimeInStage: stats.Mean(t.screenDays)},
		{Stage: domain.StageShortlisted, Count: t.shortlisted},
		{Stage: domain.StageInterviewScheduled, Count: t.scheduled, AvgTimeInStage: interviewDwell},
		{Stage: domain.StageInterviewCompleted, Count: t.completed, AvgTimeInStage: interviewDwell},
		{Stage: domain.StageOfferExtended, Count: t.offered, AvgTimeInStage: stats.Mean(t.offerDays)},
	}
}

// StagePerformance returns the six pipeline stages in funnel order with
// their counts and average dwell times.
func (e *Engine) StagePerformance(ctx context.Context, q domain.AnalyticsQuery) ([]domain.StageMetrics, error) {
	rows, err := e.store.QueryPipelineMetrics(ctx, pipelineFilter(q))
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline metrics: %w", err)
	}
	return buildStages(sumPipeline(rows)), nil
}

// Bottlenecks returns all six pipeline stages annotated with their drop-off
// to the next stage, sorted descending by drop-off rate with ties kept in
// funnel order. A stage is a bottleneck when its drop-off exceeds 50% or its
// average dwell exceeds 7 days.
func (e *Engine) Bottlenecks(ctx context.Context, q domain.AnalyticsQuery) ([]domain.PipelineBottleneck, error) {
	rows, err := e.store.QueryPipelineMetrics(ctx, pipelineFilter(q))
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline metrics: %w", err)
	}

	t := sumPipeline(rows)
	stages := buildStages(t)

	// The stage after offer_extended is the hired count.
	next := make([]int, len(stages))
	for i := 0; i < len(stages)-1; i++ {
		next[i] = stages[i+1].Count
	}
	next[len(stages)-1] = t.hired

	out := make([]domain.PipelineBottleneck, 0, len(stages))
	for i, s := range stages {
		dropOff := 0.0
		if s.Count > 0 {
			dropOff = float64(s.Count-next[i]) / float64(s.Count) * 100
		}
		out = append(out, domain.PipelineBottleneck{
			Stage:          s.Stage,
			Count:          s.Count,
			DropOffRate:    dropOff,
			AvgTimeInStage: s.AvgTimeInStage,
			IsBottleneck:   dropOff > bottleneckDropOffPct || s.AvgTimeInStage > bottleneckDwellDays,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DropOffRate > out[j].DropOffRate })
	return out, nil
}

// SourcePerformance groups the matching source rows by source, sums the
// counts and recomputes the derived rates from those sums rather than
// averaging the stored per-row values. Sorted descending by conversion rate.
func (e *Engine) SourcePerformance(ctx context.Context, q domain.AnalyticsQuery) ([]domain.SourceAnalytics, error) {
	rows, err := e.store.QuerySourcePerformance(ctx, sourceFilter(q))
	if err != nil {
		return nil, fmt.Errorf("failed to query source performance: %w", err)
	}

	type acc struct {
		total       int
		qualified   int
		interviewed int
		hired       int
		scoreSum    float64
		costSum     float64
	}

	grouped := make(map[string]*acc)
	var order []string
	for _, r := range rows {
		a, ok := grouped[r.Source]
		if !ok {
			a = &acc{}
			grouped[r.Source] = a
			order = append(order, r.Source)
		}
		a.total += r.TotalCandidates
		a.qualified += r.QualifiedCandidates
		a.interviewed += r.InterviewedCandidates
		a.hired += r.HiredCandidates
		// Undo the per-row averaging so the recomputed score/cost weight each
		// candidate equally across buckets.
		a.scoreSum += r.AvgQualityScore * float64(r.TotalCandidates)
		a.costSum += r.AvgCostPerHire * float64(r.HiredCandidates)
	}

	out := make([]domain.SourceAnalytics, 0, len(grouped))
	for _, source := range order {
		a := grouped[source]
		s := domain.SourceAnalytics{
			Source:                source,
			TotalCandidates:       a.total,
			QualifiedCandidates:   a.qualified,
			InterviewedCandidates: a.interviewed,
			HiredCandidates:       a.hired,
			ConversionRate:        pct(a.hired, a.total),
		}
		if a.total > 0 {
			s.QualityScore = a.scoreSum / float64(a.total)
		}
		if a.hired > 0 {
			s.CostPerHire = a.costSum / float64(a.hired)
		}
		if s.CostPerHire > 0 {
			s.ROI = s.QualityScore * s.ConversionRate / s.CostPerHire
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ConversionRate > out[j].ConversionRate })
	return out, nil
}

// TopSources returns the best-converting sources, at most limit entries.
func (e *Engine) TopSources(ctx context.Context, q domain.AnalyticsQuery, limit int) ([]domain.SourceAnalytics, error) {
	all, err := e.SourcePerformance(ctx, q)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func sumDistributions(dst domain.Distribution, src domain.Distribution) {
	for k, v := range src {
		dst[k] += v
	}
}

// DiversityAnalytics sums the matching diversity rows field by field,
// recomputes the diversity index from the summed gender distribution and
// averages the stored per-row bias indicators. Alerts compare the averaged
// indicators against the per-category alert thresholds. Zero matching rows
// yield an explicit empty result.
func (e *Engine) DiversityAnalytics(ctx context.Context, q domain.AnalyticsQuery) (domain.DiversityAnalytics, error) {
	filter := repository.MetricsFilter{CompanyID: q.CompanyID, JobID: q.JobID}
	if q.JobID == "" {
		filter.RollupOnly = true
	}
	if q.StartDate != nil {
		filter.From = *q.StartDate
	}
	if q.EndDate != nil {
		filter.To = *q.EndDate
	}

	rows, err := e.store.QueryDiversityMetrics(ctx, filter)
	if err != nil {
		return domain.DiversityAnalytics{}, fmt.Errorf("failed to query diversity metrics: %w", err)
	}

	out := domain.DiversityAnalytics{
		GenderDistribution:    domain.Distribution{},
		EthnicityDistribution: domain.Distribution{},
		AgeDistribution:       domain.Distribution{},
		EducationDistribution: domain.Distribution{},
		HiredGender:           domain.Distribution{},
		HiredEthnicity:        domain.Distribution{},
		HiredAge:              domain.Distribution{},
		HiredEducation:        domain.Distribution{},
	}
	if len(rows) == 0 {
		return out, nil
	}

	var genderBias, ethnicityBias, ageBias, educationBias []float64
	for _, r := range rows {
		out.TotalApplicants += r.TotalApplicants
		sumDistributions(out.GenderDistribution, r.GenderDistribution)
		sumDistributions(out.EthnicityDistribution, r.EthnicityDistribution)
		sumDistributions(out.AgeDistribution, r.AgeDistribution)
		sumDistributions(out.EducationDistribution, r.EducationDistribution)
		sumDistributions(out.HiredGender, r.HiredGender)
		sumDistributions(out.HiredEthnicity, r.HiredEthnicity)
		sumDistributions(out.HiredAge, r.HiredAge)
		sumDistributions(out.HiredEducation, r.HiredEducation)

		genderBias = append(genderBias, r.BiasIndicators.Gender)
		ethnicityBias = append(ethnicityBias, r.BiasIndicators.Ethnicity)
		ageBias = append(ageBias, r.BiasIndicators.Age)
		educationBias = append(educationBias, r.BiasIndicators.Education)
	}

	out.DiversityIndex = stats.ShannonDiversityIndex(out.GenderDistribution, len(out.GenderDistribution))
	out.BiasIndicators = domain.BiasIndicators{
		Gender:    stats.Mean(genderBias),
		Ethnicity: stats.Mean(ethnicityBias),
		Age:       stats.Mean(ageBias),
		Education: stats.Mean(educationBias),
	}
	out.BiasAlerts = e.biasAlerts(out.BiasIndicators)
	return out, nil
}

func (e *Engine) biasAlerts(indicators domain.BiasIndicators) []string {
	var alerts []string
	checks := []struct {
		axis      string
		score     float64
		threshold float64
	}{
		{"gender", indicators.Gender, e.alertThresholds.Gender},
		{"ethnicity", indicators.Ethnicity, e.alertThresholds.Ethnicity},
		{"age", indicators.Age, e.alertThresholds.Age},
		{"education", indicators.Education, e.alertThresholds.Education},
	}
	for _, c := range checks {
		if c.score > c.threshold {
			alerts = append(alerts, fmt.Sprintf(
				"%s bias indicator %.2f exceeds threshold %.2f", c.axis, c.score, c.threshold))
		}
	}
	return alerts
}

// BiasIndicators recomputes bias scores directly from the individual
// application records rather than from stored aggregates, scoring hire-rate
// disparity per demographic axis. The sign convention of
// stats.HireRateDisparity is preserved: a negative score means the spread
// sits among uniformly low hire rates, so axes are flagged on the absolute
// score against the detection thresholds. Returns all zeros when no
// applications match.
func (e *Engine) BiasIndicators(ctx context.Context, companyID, jobID string) (domain.BiasDetection, error) {
	apps, err := e.reader.ListApplications(ctx, repository.ApplicationFilter{
		CompanyID: companyID,
		JobID:     jobID,
	})
	if err != nil {
		return domain.BiasDetection{}, fmt.Errorf("failed to list applications: %w", err)
	}
	if len(apps) == 0 {
		return domain.BiasDetection{}, nil
	}

	gender := make(map[string]stats.GroupOutcome)
	ethnicity := make(map[string]stats.GroupOutcome)
	age := make(map[string]stats.GroupOutcome)
	education := make(map[string]stats.GroupOutcome)

	record := func(groups map[string]stats.GroupOutcome, key string, hired bool) {
		g := groups[key]
		g.Total++
		if hired {
			g.Hired++
		}
		groups[key] = g
	}

	for _, app := range apps {
		hired := app.Status == domain.StatusHired
		record(gender, orUnknown(app.Gender), hired)
		record(ethnicity, orUnknown(app.Ethnicity), hired)
		record(age, string(stats.CategorizeAge(app.Age)), hired)
		record(education, orUnknown(app.Education), hired)
	}

	indicators := domain.BiasIndicators{
		Gender:    stats.HireRateDisparity(gender),
		Ethnicity: stats.HireRateDisparity(ethnicity),
		Age:       stats.HireRateDisparity(age),
		Education: stats.HireRateDisparity(education),
	}
	return domain.BiasDetection{
		Indicators:  indicators,
		FlaggedAxes: e.flaggedAxes(indicators),
	}, nil
}

func (e *Engine) flaggedAxes(indicators domain.BiasIndicators) []string {
	var flagged []string
	checks := []struct {
		axis      string
		score     float64
		threshold float64
	}{
		{"gender", indicators.Gender, e.detectionThresholds.Gender},
		{"ethnicity", indicators.Ethnicity, e.detectionThresholds.Ethnicity},
		{"age", indicators.Age, e.detectionThresholds.Age},
		{"education", indicators.Education, e.detectionThresholds.Education},
	}
	for _, c := range checks {
		if math.Abs(c.score) > c.threshold {
			flagged = append(flagged, c.axis)
		}
	}
	return flagged
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// TrendSeries returns the daily applications/hires/time-to-fill series over
// the query window, defaulting to the last TrendWindowDays days. Drawn from
// the company-wide rollup rows.
func (e *Engine) TrendSeries(ctx context.Context, q domain.AnalyticsQuery) ([]domain.TrendPoint, error) {
	to := e.now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -TrendWindowDays)
	if q.StartDate != nil {
		from = *q.StartDate
	}
	if q.EndDate != nil {
		to = *q.EndDate
	}

	rows, err := e.store.QueryPipelineMetrics(ctx, repository.MetricsFilter{
		CompanyID:  q.CompanyID,
		RollupOnly: true,
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline metrics: %w", err)
	}

	type acc struct {
		applications int
		hires        int
		fillDays     []float64
	}
	byDay := make(map[time.Time]*acc)
	var days []time.Time
	for _, r := range rows {
		day := r.DateBucket.UTC().Truncate(24 * time.Hour)
		a, ok := byDay[day]
		if !ok {
			a = &acc{}
			byDay[day] = a
			days = append(days, day)
		}
		a.applications += r.TotalApplications
		a.hires += r.CandidatesHired
		if r.AvgTimeToFill != nil {
			a.fillDays = append(a.fillDays, *r.AvgTimeToFill)
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]domain.TrendPoint, 0, len(days))
	for _, day := range days {
		a := byDay[day]
		out = append(out, domain.TrendPoint{
			Date:          day,
			Applications:  a.applications,
			Hires:         a.hires,
			AvgTimeToFill: stats.Mean(a.fillDays),
		})
	}
	return out, nil
}
