package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/cache"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/dto"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/telemetry"
)

// MockAnalyticsService is a mock implementation of service.AnalyticsServicer
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Summary(ctx context.Context, req *dto.AnalyticsRequest) (domain.AnalyticsSummary, error) {
	args := m.Called(req)
	return args.Get(0).(domain.AnalyticsSummary), args.Error(1)
}

func (m *MockAnalyticsService) TimeToFill(ctx context.Context, req *dto.AnalyticsRequest) (domain.TimeToFillMetrics, error) {
	args := m.Called(req)
	return args.Get(0).(domain.TimeToFillMetrics), args.Error(1)
}

func (m *MockAnalyticsService) ConversionRates(ctx context.Context, req *dto.AnalyticsRequest) (domain.ConversionRates, error) {
	args := m.Called(req)
	return args.Get(0).(domain.ConversionRates), args.Error(1)
}

func (m *MockAnalyticsService) Bottlenecks(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.PipelineBottleneck, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PipelineBottleneck), args.Error(1)
}

func (m *MockAnalyticsService) StagePerformance(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.StageMetrics, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StageMetrics), args.Error(1)
}

func (m *MockAnalyticsService) SourcePerformance(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.SourceAnalytics, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceAnalytics), args.Error(1)
}

func (m *MockAnalyticsService) TopSources(ctx context.Context, req *dto.AnalyticsRequest) ([]domain.SourceAnalytics, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceAnalytics), args.Error(1)
}

func (m *MockAnalyticsService) Diversity(ctx context.Context, req *dto.AnalyticsRequest) (domain.DiversityAnalytics, error) {
	args := m.Called(req)
	return args.Get(0).(domain.DiversityAnalytics), args.Error(1)
}

func (m *MockAnalyticsService) BiasIndicators(ctx context.Context, req *dto.AnalyticsRequest) (domain.BiasDetection, error) {
	args := m.Called(req)
	return args.Get(0).(domain.BiasDetection), args.Error(1)
}

func (m *MockAnalyticsService) Dashboard(ctx context.Context, req *dto.AnalyticsRequest) (*domain.DashboardData, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardData), args.Error(1)
}

func (m *MockAnalyticsService) GenerateReport(ctx context.Context, req *dto.GenerateReportRequest) (*domain.Report, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockAnalyticsService) TriggerRefresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RefreshResponse), args.Error(1)
}

func (m *MockAnalyticsService) InvalidateCache(pattern string) int {
	args := m.Called(pattern)
	return args.Int(0)
}

func (m *MockAnalyticsService) ClearCache() {
	m.Called()
}

func (m *MockAnalyticsService) CacheStats() cache.Stats {
	args := m.Called()
	return args.Get(0).(cache.Stats)
}

func newTestHandler(mockService *MockAnalyticsService) *Handler {
	return NewHandler(mockService, telemetry.New(), zap.NewNop())
}

func TestHandler_HealthCheck(t *testing.T) {
	handler := newTestHandler(new(MockAnalyticsService))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

func TestHandler_GetSummary_Success(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	summary := domain.AnalyticsSummary{
		TotalApplications: 800,
		TotalHired:        40,
		OverallConversion: 5,
	}
	mockService.On("Summary", mock.MatchedBy(func(req *dto.AnalyticsRequest) bool {
		return req.CompanyID == "cmp_123" && req.JobID == "job_456"
	})).Return(summary, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary?company_id=cmp_123&job_id=job_456", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.AnalyticsSummary
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 800, response.TotalApplications)
	assert.Equal(t, float64(5), response.OverallConversion)
	mockService.AssertExpectations(t)
}

func TestHandler_GetSummary_NoCompanyFilter(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	// company_id is an optional filter: omitting it queries across all companies.
	mockService.On("Summary", mock.MatchedBy(func(req *dto.AnalyticsRequest) bool {
		return req.CompanyID == ""
	})).Return(domain.AnalyticsSummary{TotalApplications: 1200}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.AnalyticsSummary
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 1200, response.TotalApplications)
	mockService.AssertExpectations(t)
}

func TestHandler_GetSummary_ServiceError(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	mockService.On("Summary", mock.Anything).
		Return(domain.AnalyticsSummary{}, errors.New("metrics store unavailable"))

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary?company_id=cmp_123", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response dto.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "internal_error", response.Error)
}

func TestHandler_GetBottlenecks_Success(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	bottlenecks := []domain.PipelineBottleneck{
		{Stage: domain.StageScreening, Count: 400, DropOffRate: 75, IsBottleneck: true},
		{Stage: domain.StageApplied, Count: 800, DropOffRate: 50},
	}
	mockService.On("Bottlenecks", mock.Anything).Return(bottlenecks, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/bottlenecks?company_id=cmp_123", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.PipelineBottleneck
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response, 2)
	assert.Equal(t, domain.StageScreening, response[0].Stage)
	assert.True(t, response[0].IsBottleneck)
}

func TestHandler_GetTopSources_PassesLimit(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	mockService.On("TopSources", mock.MatchedBy(func(req *dto.AnalyticsRequest) bool {
		return req.Limit == 3
	})).Return([]domain.SourceAnalytics{{Source: "referral"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/top-sources?company_id=cmp_123&limit=3", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestHandler_TriggerRefresh_Accepted(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	refreshReq := dto.RefreshRequest{JobType: "pipeline", CompanyID: "cmp_123"}
	mockService.On("TriggerRefresh", &refreshReq).Return(&dto.RefreshResponse{
		Status:    "accepted",
		JobType:   "pipeline",
		CompanyID: "cmp_123",
	}, nil)

	body, _ := json.Marshal(refreshReq)
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response dto.RefreshResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "accepted", response.Status)
	mockService.AssertExpectations(t)
}

func TestHandler_TriggerRefresh_InvalidJSON(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/refresh", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "TriggerRefresh", mock.Anything)
}

func TestHandler_CacheEndpoints(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	mockService.On("CacheStats").Return(cache.Stats{Hits: 10, Misses: 5, Entries: 3, HitRate: 10.0 / 15.0})
	mockService.On("ClearCache").Return()
	mockService.On("InvalidateCache", "company:cmp_123").Return(4)

	req := httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats cache.Stats
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, uint64(10), stats.Hits)

	req = httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	body, _ := json.Marshal(dto.InvalidateCacheRequest{Pattern: "company:cmp_123"})
	req = httptest.NewRequest(http.MethodPost, "/api/cache/invalidate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var invalidated dto.InvalidateCacheResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &invalidated))
	assert.Equal(t, 4, invalidated.Removed)
	mockService.AssertExpectations(t)
}

func TestHandler_GetDashboard_Success(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	data := &domain.DashboardData{
		Summary: domain.AnalyticsSummary{TotalApplications: 100},
	}
	mockService.On("Dashboard", mock.Anything).Return(data, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?company_id=cmp_123", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.DashboardData
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 100, response.Summary.TotalApplications)
}

func TestHandler_GenerateReport_Created(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	reportReq := dto.GenerateReportRequest{
		CompanyID: "cmp_123",
		Sections:  []string{"summary"},
		Format:    "csv",
	}
	mockService.On("GenerateReport", &reportReq).Return(&domain.Report{
		ID:          "report-1",
		Format:      "csv",
		DownloadRef: "/tmp/report-1.csv",
	}, nil)

	body, _ := json.Marshal(reportReq)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response domain.Report
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "report-1", response.ID)
	mockService.AssertExpectations(t)
}

func TestHandler_GenerateReport_MissingSections(t *testing.T) {
	mockService := new(MockAnalyticsService)
	handler := newTestHandler(mockService)

	body, _ := json.Marshal(map[string]interface{}{
		"company_id": "cmp_123",
		"format":     "csv",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GenerateReport", mock.Anything)
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	handler := newTestHandler(new(MockAnalyticsService))

	// A prior request gives the HTTP counters their first label values.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recruitment_analytics_http_requests_total")
}
