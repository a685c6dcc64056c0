package service

import (
	"context"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/cache"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/dto"
)

// AnalyticsServicer defines the interface for analytics service operations
type AnalyticsServicer interface {
	Summary(ctx context.Context, req *dto.AnalyticsRequest) (domain.AnalyticsSummary, error)
	TimeToFill(ctx context.Context, req *dto.AnalyticsRequest) (domain.TimeToFillMetrics, error)
	ConversionRates(ctx context.Context, req *dto.AnalyticsRequest) (domain.ConversionRates, error)
	Bottlenecks(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.PipelineBottleneck, error)
	StagePerformance(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.StageMetrics, error)
	SourcePerformance(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.SourceAnalytics, error)
	TopSources(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.SourceAnalytics, error)
	Diversity(ctx context.Context, req *dto.AnalyticsRequest) (domain.DiversityAnalytics, error)
	BiasIndicators(ctx context.Context, req *dto.AnalyticsRequest) (domain.BiasDetection, error)
	Dashboard(ctx context.Context, req *dto.AnalyticsRequest) (*domain.DashboardData, error)
	GenerateReport(ctx context.Context, req *dto.GenerateReportRequest) (*domain.Report, error)
	TriggerRefresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error)
	InvalidateCache(pattern string) int
	ClearCache()
	CacheStats() cache.Stats
}
