package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/cache"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/dto"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/query"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/queue"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/report"
)

// defaultTopSourcesLimit caps the leaderboard when no limit is requested
const defaultTopSourcesLimit = 5

// AnalyticsService represents the cache-fronted analytics service
type AnalyticsService struct {
	queries      *query.Engine
	orchestrator *report.Orchestrator
	cache        *cache.Cache
	publisher    queue.TriggerPublisher
	queryTTL     time.Duration
	log          *zap.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(queries *query.Engine, orchestrator *report.Orchestrator, c *cache.Cache, publisher queue.TriggerPublisher, queryTTL time.Duration, log *zap.Logger) *AnalyticsService {
	if queryTTL <= 0 {
		queryTTL = cache.DefaultTTL
	}
	return &AnalyticsService{
		queries:      queries,
		orchestrator: orchestrator,
		cache:        c,
		publisher:    publisher,
		queryTTL:     queryTTL,
		log:          log,
	}
}

// getOrCompute answers from the cache when possible, otherwise computes and
// caches the result. A stale or mistyped cache entry falls through to a fresh
// computation; the cache never turns a hit into an error.
func getOrCompute[T any](s *AnalyticsService, ctx context.Context, prefix string, q domain.AnalyticsQuery, compute func(context.Context, domain.AnalyticsQuery) (T, error)) (T, error) {
	key := cache.Key(prefix, q)
	if v, ok := s.cache.Get(key); ok {
		if out, ok := v.(T); ok {
			return out, nil
		}
	}

	out, err := compute(ctx, q)
	if err != nil {
		var zero T
		return zero, err
	}

	s.cache.Set(key, out, s.queryTTL)
	return out, nil
}

// Summary returns the headline funnel view
func (s *AnalyticsService) Summary(ctx context.Context, req *dto.AnalyticsRequest) (domain.AnalyticsSummary, error) {
	q, err := req.Query()
	if err != nil {
		return domain.AnalyticsSummary{}, err
	}
	return getOrCompute(s, ctx, "summary", q, s.queries.Summary)
}

// TimeToFill returns hiring latency statistics
func (s *AnalyticsService) TimeToFill(ctx context.Context, req *dto.AnalyticsRequest) (domain.TimeToFillMetrics, error) {
	q, err := req.Query()
	if err != nil {
		return domain.TimeToFillMetrics{}, err
	}
	return getOrCompute(s, ctx, "time-to-fill", q, s.queries.TimeToFill)
}

// ConversionRates returns the sequential funnel conversion ratios
func (s *AnalyticsService) ConversionRates(ctx context.Context, req *dto.AnalyticsRequest) (domain.ConversionRates, error) {
	q, err := req.Query()
	if err != nil {
		return domain.ConversionRates{}, err
	}
	return getOrCompute(s, ctx, "conversion-rates", q, s.queries.ConversionRates)
}

// Bottlenecks returns the pipeline stages ranked by drop-off
func (s *AnalyticsService) Bottlenecks(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.PipelineBottleneck, error) {
	q, err := req.Query()
	if err != nil {
		return nil, err
	}
	return getOrCompute(s, ctx, "bottlenecks", q, s.queries.Bottlenecks)
}

// StagePerformance returns per-stage counts and dwell times
func (s *AnalyticsService) StagePerformance(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.StageMetrics, error) {
	q, err := req.Query()
	if err != nil {
		return nil, err
	}
	return getOrCompute(s, ctx, "stage-performance", q, s.queries.StagePerformance)
}

// SourcePerformance returns the acquisition source comparison
func (s *AnalyticsService) SourcePerformance(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.SourceAnalytics, error) {
	q, err := req.Query()
	if err != nil {
		return nil, err
	}
	return getOrCompute(s, ctx, "source-performance", q, s.queries.SourcePerformance)
}

// TopSources returns the best-converting sources, capped at the requested limit
func (s *AnalyticsService) TopSources(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.SourceAnalytics, error) {
	q, err := req.Query()
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultTopSourcesLimit
	}

	prefix := fmt.Sprintf("top-sources:%d", limit)
	return getOrCompute(s, ctx, prefix, q, func(ctx context.Context, q domain.AnalyticsQuery) ([]domain.SourceAnalytics, error) {
		return s.queries.TopSources(ctx, q, limit)
	})
}

// Diversity returns the aggregated diversity view
func (s *AnalyticsService) Diversity(ctx context.Context, req *dto.AnalyticsRequest) (domain.DiversityAnalytics, error) {
	q, err := req.Query()
	if err != nil {
		return domain.DiversityAnalytics{}, err
	}
	return getOrCompute(s, ctx, "diversity", q, s.queries.DiversityAnalytics)
}

// BiasIndicators recomputes hire-rate disparities from raw application records
func (s *AnalyticsService) BiasIndicators(ctx context.Context, req *dto.AnalyticsRequest) (domain.BiasDetection, error) {
	q, err := req.Query()
	if err != nil {
		return domain.BiasDetection{}, err
	}
	return getOrCompute(s, ctx, "bias-indicators", q, func(ctx context.Context, q domain.AnalyticsQuery) (domain.BiasDetection, error) {
		return s.queries.BiasIndicators(ctx, q.CompanyID, q.JobID)
	})
}

// Dashboard returns the composed dashboard payload
func (s *AnalyticsService) Dashboard(ctx context.Context, req *dto.AnalyticsRequest) (*domain.DashboardData, error) {
	q, err := req.Query()
	if err != nil {
		return nil, err
	}
	return s.orchestrator.DashboardData(ctx, q)
}

// GenerateReport builds and renders an analytics report
func (s *AnalyticsService) GenerateReport(ctx context.Context, req *dto.GenerateReportRequest) (*domain.Report, error) {
	q, err := req.Query()
	if err != nil {
		return nil, err
	}

	sections := make([]domain.ReportSection, len(req.Sections))
	for i, name := range req.Sections {
		sections[i] = domain.ReportSection(name)
	}

	return s.orchestrator.GenerateReport(ctx, q, sections, req.Format)
}

// TriggerRefresh publishes an aggregation trigger to the worker queue and
// drops the cache entries the refresh will make stale.
func (s *AnalyticsService) TriggerRefresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error) {
	jobType := req.JobType
	if jobType == "" {
		jobType = "all"
	}
	switch jobType {
	case "all", "pipeline", "sources", "diversity":
	default:
		return nil, fmt.Errorf("invalid job_type %q (supported: all, pipeline, sources, diversity)", jobType)
	}

	if req.DateBucket != "" {
		if _, err := time.Parse("2006-01-02", req.DateBucket); err != nil {
			return nil, fmt.Errorf("invalid date_bucket %q: expected YYYY-MM-DD", req.DateBucket)
		}
	}

	trigger := &queue.TriggerMessage{
		JobType:    jobType,
		CompanyID:  req.CompanyID,
		DateBucket: req.DateBucket,
	}
	if err := s.publisher.PublishTrigger(ctx, trigger); err != nil {
		return nil, fmt.Errorf("failed to publish refresh trigger: %w", err)
	}

	if req.CompanyID != "" {
		removed := s.cache.InvalidatePattern("company:" + req.CompanyID)
		s.log.Info("Invalidated cache for refreshed company",
			zap.String("company_id", req.CompanyID),
			zap.Int("removed", removed))
	} else {
		s.cache.Clear()
	}

	return &dto.RefreshResponse{
		Status:     "accepted",
		JobType:    jobType,
		CompanyID:  req.CompanyID,
		DateBucket: req.DateBucket,
	}, nil
}

// InvalidateCache removes every cache entry whose key contains the pattern
func (s *AnalyticsService) InvalidateCache(pattern string) int {
	return s.cache.InvalidatePattern(pattern)
}

// ClearCache flushes the analytics cache
func (s *AnalyticsService) ClearCache() {
	s.cache.Clear()
}

// CacheStats returns cache hit and eviction counters
func (s *AnalyticsService) CacheStats() cache.Stats {
	return s.cache.Stats()
}
