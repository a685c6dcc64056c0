package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository"
)

var bucket = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func newTestEngine(store *repository.MemoryStore, opts ...Option) *Engine {
	return NewEngine(store, store, zap.NewNop(), opts...)
}

func seedRollupRow(store *repository.MemoryStore, company string, day time.Time, mutate func(*domain.PipelineMetricsRow)) {
	row := &domain.PipelineMetricsRow{
		CompanyID:  company,
		DateBucket: day,
	}
	if mutate != nil {
		mutate(row)
	}
	_ = store.UpsertPipelineMetrics(context.Background(), row)
}

func TestTimeToFill_ZeroData(t *testing.T) {
	engine := newTestEngine(repository.NewMemoryStore())

	out, err := engine.TimeToFill(context.Background(), domain.AnalyticsQuery{CompanyID: "none"})

	assert.NoError(t, err)
	assert.Equal(t, domain.TimeToFillMetrics{}, out)
}

func TestTimeToFill_AveragesRowLevelAverages(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRollupRow(store, "c1", bucket, func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 100
		r.CandidatesHired = 10
		r.AvgTimeToFill = floatPtr(10)
	})
	seedRollupRow(store, "c1", bucket.AddDate(0, 0, 1), func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 50
		r.CandidatesHired = 5
		r.AvgTimeToFill = floatPtr(20)
	})
	// Row without a fill sample is excluded from the latency stats but still
	// counts toward positions.
	seedRollupRow(store, "c1", bucket.AddDate(0, 0, 2), func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 30
	})

	engine := newTestEngine(store)
	out, err := engine.TimeToFill(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.InDelta(t, 15, out.AverageDays, 1e-9)
	assert.InDelta(t, 15, out.MedianDays, 1e-9)
	assert.InDelta(t, 10, out.MinDays, 1e-9)
	assert.InDelta(t, 20, out.MaxDays, 1e-9)
	assert.Equal(t, 180, out.TotalPositions)
	assert.Equal(t, 15, out.FilledPositions)
	assert.Equal(t, 165, out.OpenPositions)
}

func TestConversionRates_ZeroDenominators(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRollupRow(store, "c1", bucket, func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 10
	})

	engine := newTestEngine(store)
	out, err := engine.ConversionRates(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.Equal(t, domain.ConversionRates{}, out)
}

func TestConversionRates_SequentialRatios(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRollupRow(store, "c1", bucket, func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 800
		r.ApplicationsScreened = 400
		r.Shortlisted = 200
		r.InterviewsScheduled = 100
		r.InterviewsCompleted = 80
		r.OffersExtended = 60
		r.CandidatesHired = 40
	})

	engine := newTestEngine(store)
	out, err := engine.ConversionRates(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.InDelta(t, 50, out.ApplicationToScreening, 1e-9)
	assert.InDelta(t, 50, out.ScreeningToShortlist, 1e-9)
	assert.InDelta(t, 50, out.ShortlistToInterview, 1e-9)
	assert.InDelta(t, 75, out.InterviewToOffer, 1e-9)
	assert.InDelta(t, 40.0/60.0*100, out.OfferToHire, 1e-9)
	assert.InDelta(t, 5, out.OverallConversion, 1e-9)
}

func TestBottlenecks_SortedAndFlagged(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRollupRow(store, "c1", bucket, func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 100
		r.ApplicationsScreened = 80 // 20% drop from applied
		r.Shortlisted = 20          // 75% drop from screening
		r.InterviewsScheduled = 15  // 25% drop from shortlisted
		r.InterviewsCompleted = 12  // 20% drop
		r.OffersExtended = 10       // ~16.7% drop
		r.CandidatesHired = 8       // 20% drop from offer
		r.AvgDaysToOffer = floatPtr(9)
	})

	engine := newTestEngine(store)
	out, err := engine.Bottlenecks(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.Len(t, out, 6)

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].DropOffRate, out[i].DropOffRate)
	}

	assert.Equal(t, domain.StageScreening, out[0].Stage)
	assert.InDelta(t, 75, out[0].DropOffRate, 1e-9)
	assert.True(t, out[0].IsBottleneck)

	for _, b := range out {
		assert.Equal(t, b.DropOffRate > 50 || b.AvgTimeInStage > 7, b.IsBottleneck)
		if b.Stage == domain.StageOfferExtended {
			// Flagged on dwell time alone: 9 days in offer stage.
			assert.True(t, b.IsBottleneck)
		}
	}
}

func TestBottlenecks_ZeroDataKeepsFunnelOrder(t *testing.T) {
	engine := newTestEngine(repository.NewMemoryStore())

	out, err := engine.Bottlenecks(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.Len(t, out, 6)
	want := []domain.PipelineStage{
		domain.StageApplied, domain.StageScreening, domain.StageShortlisted,
		domain.StageInterviewScheduled, domain.StageInterviewCompleted, domain.StageOfferExtended,
	}
	for i, b := range out {
		assert.Equal(t, want[i], b.Stage)
		assert.Equal(t, 0.0, b.DropOffRate)
		assert.False(t, b.IsBottleneck)
	}
}

func seedSourceRow(store *repository.MemoryStore, source string, day time.Time, mutate func(*domain.SourcePerformanceRow)) {
	row := &domain.SourcePerformanceRow{
		CompanyID:  "c1",
		Source:     source,
		DateBucket: day,
	}
	if mutate != nil {
		mutate(row)
	}
	_ = store.UpsertSourcePerformance(context.Background(), row)
}

func TestSourcePerformance_RecomputedFromSums(t *testing.T) {
	store := repository.NewMemoryStore()
	seedSourceRow(store, "referral", bucket, func(r *domain.SourcePerformanceRow) {
		r.TotalCandidates = 10
		r.HiredCandidates = 4
		r.AvgQualityScore = 80
		r.AvgCostPerHire = 100
	})
	seedSourceRow(store, "referral", bucket.AddDate(0, 0, 1), func(r *domain.SourcePerformanceRow) {
		r.TotalCandidates = 30
		r.HiredCandidates = 2
		r.AvgQualityScore = 60
		r.AvgCostPerHire = 200
	})
	seedSourceRow(store, "job-board", bucket, func(r *domain.SourcePerformanceRow) {
		r.TotalCandidates = 100
		r.HiredCandidates = 1
		r.AvgQualityScore = 50
	})

	engine := newTestEngine(store)
	out, err := engine.SourcePerformance(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.Len(t, out, 2)

	// referral converts 6/40 = 15%, job-board 1%.
	assert.Equal(t, "referral", out[0].Source)
	assert.Equal(t, 40, out[0].TotalCandidates)
	assert.Equal(t, 6, out[0].HiredCandidates)
	assert.InDelta(t, 15, out[0].ConversionRate, 1e-9)
	// Candidate-weighted, not an average of the two row averages.
	assert.InDelta(t, (80*10+60*30)/40.0, out[0].QualityScore, 1e-9)
	assert.InDelta(t, (100*4+200*2)/6.0, out[0].CostPerHire, 1e-9)

	assert.Equal(t, "job-board", out[1].Source)
	assert.Equal(t, 0.0, out[1].ROI)
}

func TestTopSources_Limit(t *testing.T) {
	store := repository.NewMemoryStore()
	for i, source := range []string{"a", "b", "c"} {
		hired := i + 1
		seedSourceRow(store, source, bucket, func(r *domain.SourcePerformanceRow) {
			r.TotalCandidates = 10
			r.HiredCandidates = hired
		})
	}

	engine := newTestEngine(store)
	out, err := engine.TopSources(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"}, 2)

	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, "c", out[0].Source)
	assert.Equal(t, "b", out[1].Source)
}

func seedDiversityRow(store *repository.MemoryStore, day time.Time, mutate func(*domain.DiversityMetricsRow)) {
	row := &domain.DiversityMetricsRow{
		CompanyID:             "c1",
		DateBucket:            day,
		GenderDistribution:    domain.Distribution{},
		EthnicityDistribution: domain.Distribution{},
		AgeDistribution:       domain.Distribution{},
		EducationDistribution: domain.Distribution{},
		HiredGender:           domain.Distribution{},
		HiredEthnicity:        domain.Distribution{},
		HiredAge:              domain.Distribution{},
		HiredEducation:        domain.Distribution{},
	}
	if mutate != nil {
		mutate(row)
	}
	_ = store.UpsertDiversityMetrics(context.Background(), row)
}

func TestDiversityAnalytics_SumsAndAverages(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDiversityRow(store, bucket, func(r *domain.DiversityMetricsRow) {
		r.TotalApplicants = 10
		r.GenderDistribution = domain.Distribution{"female": 5, "male": 5}
		r.HiredGender = domain.Distribution{"male": 1}
		r.BiasIndicators = domain.BiasIndicators{Gender: 0.5, Ethnicity: 0.1}
	})
	seedDiversityRow(store, bucket.AddDate(0, 0, 1), func(r *domain.DiversityMetricsRow) {
		r.TotalApplicants = 10
		r.GenderDistribution = domain.Distribution{"female": 5, "male": 5}
		r.HiredGender = domain.Distribution{"female": 1}
		r.BiasIndicators = domain.BiasIndicators{Gender: 0.1, Ethnicity: 0.1}
	})

	engine := newTestEngine(store)
	out, err := engine.DiversityAnalytics(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.Equal(t, 20, out.TotalApplicants)
	assert.Equal(t, 10, out.GenderDistribution["female"])
	assert.Equal(t, 10, out.GenderDistribution["male"])
	assert.Equal(t, 1, out.HiredGender["male"])
	assert.Equal(t, 1, out.HiredGender["female"])

	// Uniform two-category distribution over its own domain.
	assert.InDelta(t, 1.0, out.DiversityIndex, 1e-9)

	// Averaged, not summed.
	assert.InDelta(t, 0.3, out.BiasIndicators.Gender, 1e-9)
	assert.InDelta(t, 0.1, out.BiasIndicators.Ethnicity, 1e-9)

	// Gender 0.3 exceeds the 0.1 alert threshold; ethnicity 0.1 does not
	// exceed 0.15.
	assert.Len(t, out.BiasAlerts, 1)
	assert.Contains(t, out.BiasAlerts[0], "gender")
}

func TestDiversityAnalytics_AlertThresholdOverride(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDiversityRow(store, bucket, func(r *domain.DiversityMetricsRow) {
		r.TotalApplicants = 10
		r.BiasIndicators = domain.BiasIndicators{Gender: 0.3, Ethnicity: 0.1}
	})

	engine := newTestEngine(store, WithAlertThresholds(BiasThresholds{
		Gender: 0.5, Ethnicity: 0.05, Age: 0.5, Education: 0.5,
	}))
	out, err := engine.DiversityAnalytics(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	// Gender 0.3 is under the raised 0.5 bar; ethnicity 0.1 crosses the
	// lowered 0.05 bar.
	assert.Len(t, out.BiasAlerts, 1)
	assert.Contains(t, out.BiasAlerts[0], "ethnicity")
}

func TestDiversityAnalytics_ZeroRows(t *testing.T) {
	engine := newTestEngine(repository.NewMemoryStore())

	out, err := engine.DiversityAnalytics(context.Background(), domain.AnalyticsQuery{CompanyID: "none"})

	assert.NoError(t, err)
	assert.Equal(t, 0, out.TotalApplicants)
	assert.Equal(t, 0.0, out.DiversityIndex)
	assert.NotNil(t, out.GenderDistribution)
	assert.Empty(t, out.GenderDistribution)
	assert.Empty(t, out.BiasAlerts)
}

func TestBiasIndicators_FromRawRecords(t *testing.T) {
	store := repository.NewMemoryStore()

	seed := func(id, gender string, hired bool) {
		status := domain.StatusApplied
		if hired {
			status = domain.StatusHired
		}
		store.SeedApplication(&domain.ApplicationRecord{
			ID: id, CompanyID: "c1", JobID: "job-1", CandidateID: "cand-" + id,
			Status: status, Gender: gender, Ethnicity: "group-a",
			AppliedAt: bucket, LastUpdated: bucket,
		})
	}
	// Gender a: 9/10 hired; gender b: 2/10 hired.
	for i := 0; i < 10; i++ {
		seed("a"+string(rune('0'+i)), "a", i < 9)
		seed("b"+string(rune('0'+i)), "b", i < 2)
	}

	engine := newTestEngine(store)
	out, err := engine.BiasIndicators(context.Background(), "c1", "")

	assert.NoError(t, err)
	assert.InDelta(t, 0.7, out.Indicators.Gender, 1e-9)
	// Single ethnicity category: no disparity signal.
	assert.Equal(t, 0.0, out.Indicators.Ethnicity)

	// 0.7 clears the default 0.3 detection threshold; the flat axes do not.
	assert.Equal(t, []string{"gender"}, out.FlaggedAxes)
}

func TestBiasIndicators_DetectionThresholdOverride(t *testing.T) {
	store := repository.NewMemoryStore()

	seed := func(id, gender string, hired bool) {
		status := domain.StatusApplied
		if hired {
			status = domain.StatusHired
		}
		store.SeedApplication(&domain.ApplicationRecord{
			ID: id, CompanyID: "c1", JobID: "job-1", CandidateID: "cand-" + id,
			Status: status, Gender: gender, Ethnicity: "group-a",
			AppliedAt: bucket, LastUpdated: bucket,
		})
	}
	// Gender a: 6/10 hired; gender b: 4/10 hired. Disparity 0.2.
	for i := 0; i < 10; i++ {
		seed("a"+string(rune('0'+i)), "a", i < 6)
		seed("b"+string(rune('0'+i)), "b", i < 4)
	}

	engine := newTestEngine(store, WithDetectionThresholds(BiasThresholds{
		Gender: 0.1, Ethnicity: 0.1, Age: 0.1, Education: 0.1,
	}))
	out, err := engine.BiasIndicators(context.Background(), "c1", "")

	assert.NoError(t, err)
	assert.InDelta(t, 0.2, out.Indicators.Gender, 1e-9)
	// Below the default 0.3 policy, above the tightened one.
	assert.Equal(t, []string{"gender"}, out.FlaggedAxes)
}

func TestBiasIndicators_NoApplications(t *testing.T) {
	engine := newTestEngine(repository.NewMemoryStore())

	out, err := engine.BiasIndicators(context.Background(), "none", "")

	assert.NoError(t, err)
	assert.Equal(t, domain.BiasDetection{}, out)
}

func TestTrendSeries_DailySumsWithinWindow(t *testing.T) {
	store := repository.NewMemoryStore()
	now := bucket.AddDate(0, 0, 30)

	seedRollupRow(store, "c1", bucket, func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 10
		r.CandidatesHired = 2
		r.AvgTimeToFill = floatPtr(12)
	})
	seedRollupRow(store, "c1", bucket.AddDate(0, 0, 1), func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 20
		r.CandidatesHired = 1
	})
	// Outside the 90-day window.
	seedRollupRow(store, "c1", now.AddDate(0, 0, -200), func(r *domain.PipelineMetricsRow) {
		r.TotalApplications = 999
	})

	engine := newTestEngine(store, WithClock(func() time.Time { return now }))
	out, err := engine.TrendSeries(context.Background(), domain.AnalyticsQuery{CompanyID: "c1"})

	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.True(t, out[0].Date.Before(out[1].Date))
	assert.Equal(t, 10, out[0].Applications)
	assert.Equal(t, 2, out[0].Hires)
	assert.InDelta(t, 12, out[0].AvgTimeToFill, 1e-9)
	assert.Equal(t, 20, out[1].Applications)
}
