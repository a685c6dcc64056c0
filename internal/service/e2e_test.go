package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/aggregate"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/cache"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/dto"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/query"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/report"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/telemetry"
)

// Seeds raw application records, runs a full aggregation and reads the
// results back through the cached service facade.
func TestFunnelEndToEnd(t *testing.T) {
	store := repository.NewMemoryStore()
	bucket := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	store.SeedJob(domain.JobPosting{ID: "job-1", CompanyID: "acme", Title: "Backend Engineer"})

	statusCounts := []struct {
		status domain.ApplicationStatus
		count  int
	}{
		{domain.StatusApplied, 220},
		{domain.StatusScreening, 180},
		{domain.StatusShortlisted, 100},
		{domain.StatusInterviewScheduled, 20},
		{domain.StatusInterviewCompleted, 20},
		{domain.StatusOfferExtended, 20},
		{domain.StatusOfferAccepted, 20},
		{domain.StatusHired, 40},
		{domain.StatusRejected, 180},
	}

	seq := 0
	for _, sc := range statusCounts {
		for i := 0; i < sc.count; i++ {
			seq++
			store.SeedApplication(&domain.ApplicationRecord{
				ID:          fmt.Sprintf("app-%d", seq),
				CompanyID:   "acme",
				JobID:       "job-1",
				CandidateID: fmt.Sprintf("cand-%d", seq),
				Status:      sc.status,
				Source:      "job-board",
				FitScore:    75,
				Gender:      "female",
				Ethnicity:   "unknown",
				Education:   "bachelors",
				AppliedAt:   bucket.Add(2 * time.Hour),
				LastUpdated: bucket.Add(2*time.Hour + 10*24*time.Hour),
			})
		}
	}

	engine := aggregate.NewEngine(store, store, telemetry.New(), zap.NewNop())
	assert.NoError(t, engine.AggregateAll(context.Background(), "acme", bucket))

	queries := query.NewEngine(store, store, zap.NewNop())
	c := cache.New(zap.NewNop())
	orchestrator := report.NewOrchestrator(queries, c, report.NewCSVRenderer(t.TempDir()), zap.NewNop())
	svc := NewAnalyticsService(queries, orchestrator, c, &stubPublisher{}, time.Minute, zap.NewNop())

	req := &dto.AnalyticsRequest{CompanyID: "acme"}

	summary, err := svc.Summary(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, 800, summary.TotalApplications)
	assert.Equal(t, 40, summary.TotalHired)
	assert.InDelta(t, 5.0, summary.OverallConversion, 1e-9)

	rates, err := svc.ConversionRates(context.Background(), req)
	assert.NoError(t, err)
	assert.InDelta(t, 22.5, rates.ApplicationToScreening, 1e-9)  // 180/800
	assert.InDelta(t, 100.0/180.0*100, rates.ScreeningToShortlist, 1e-9)
	assert.InDelta(t, 20.0, rates.ShortlistToInterview, 1e-9) // 20/100
	assert.InDelta(t, 100.0, rates.InterviewToOffer, 1e-9)    // 20/20
	assert.InDelta(t, 200.0, rates.OfferToHire, 1e-9)         // 40/20
	assert.InDelta(t, 5.0, rates.OverallConversion, 1e-9)

	ttf, err := svc.TimeToFill(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, 800, ttf.TotalPositions)
	assert.Equal(t, 40, ttf.FilledPositions)
	assert.Equal(t, 760, ttf.OpenPositions)
	assert.InDelta(t, 10.0, ttf.AverageDays, 1e-9)

	diversity, err := svc.Diversity(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, 800, diversity.TotalApplicants)
	assert.Equal(t, 800, diversity.GenderDistribution["female"])
	assert.Equal(t, 40, diversity.HiredGender["female"])

	sources, err := svc.SourcePerformance(context.Background(), req)
	assert.NoError(t, err)
	assert.Len(t, sources, 1)
	assert.Equal(t, "job-board", sources[0].Source)
	assert.Equal(t, 800, sources[0].TotalCandidates)
	assert.Equal(t, 40, sources[0].HiredCandidates)

	// Second reads come from the cache.
	before := svc.CacheStats().Hits
	_, err = svc.Summary(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, before+1, svc.CacheStats().Hits)
}
