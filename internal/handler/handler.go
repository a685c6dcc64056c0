package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/dto"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/service"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/telemetry"
)

type Handler struct {
	analytics service.AnalyticsServicer
	metrics   *telemetry.Metrics
	router    *gin.Engine
	log       *zap.Logger
}

func NewHandler(analytics service.AnalyticsServicer, metrics *telemetry.Metrics, log *zap.Logger) *Handler {
	h := &Handler{
		analytics: analytics,
		metrics:   metrics,
		router:    gin.Default(),
		log:       log,
	}

	h.router.Use(h.instrument())
	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))

	analytics := h.router.Group("/api/analytics")
	{
		analytics.GET("/summary", h.getSummary)
		analytics.GET("/time-to-fill", h.getTimeToFill)
		analytics.GET("/conversion-rates", h.getConversionRates)
		analytics.GET("/bottlenecks", h.getBottlenecks)
		analytics.GET("/stage-performance", h.getStagePerformance)
		analytics.GET("/source-performance", h.getSourcePerformance)
		analytics.GET("/top-sources", h.getTopSources)
		analytics.GET("/diversity", h.getDiversity)
		analytics.GET("/bias-indicators", h.getBiasIndicators)
		analytics.POST("/refresh", h.triggerRefresh)
	}

	cacheGroup := h.router.Group("/api/cache")
	{
		cacheGroup.GET("/stats", h.getCacheStats)
		cacheGroup.POST("/clear", h.clearCache)
		cacheGroup.POST("/invalidate", h.invalidateCache)
	}

	h.router.GET("/api/dashboard", h.getDashboard)
	h.router.POST("/api/reports", h.generateReport)
}

// instrument records request counts and latency per route
func (h *Handler) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		h.metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		h.metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// analyticsQuery binds the shared query parameters or writes a 400
func (h *Handler) analyticsQuery(c *gin.Context) (*dto.AnalyticsRequest, bool) {
	var req dto.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid analytics request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return nil, false
	}
	return &req, true
}

// respond writes the payload, mapping request shape errors to 400
func (h *Handler) respond(c *gin.Context, payload interface{}, err error) {
	if err != nil {
		h.log.Error("Analytics request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, payload)
}

// getSummary handles GET /api/analytics/summary
func (h *Handler) getSummary(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.Summary(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getTimeToFill handles GET /api/analytics/time-to-fill
func (h *Handler) getTimeToFill(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.TimeToFill(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getConversionRates handles GET /api/analytics/conversion-rates
func (h *Handler) getConversionRates(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.ConversionRates(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getBottlenecks handles GET /api/analytics/bottlenecks
func (h *Handler) getBottlenecks(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.Bottlenecks(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getStagePerformance handles GET /api/analytics/stage-performance
func (h *Handler) getStagePerformance(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.StagePerformance(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getSourcePerformance handles GET /api/analytics/source-performance
func (h *Handler) getSourcePerformance(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.SourcePerformance(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getTopSources handles GET /api/analytics/top-sources
func (h *Handler) getTopSources(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.TopSources(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getDiversity handles GET /api/analytics/diversity
func (h *Handler) getDiversity(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.Diversity(c.Request.Context(), req)
	h.respond(c, out, err)
}

// getBiasIndicators handles GET /api/analytics/bias-indicators
func (h *Handler) getBiasIndicators(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.BiasIndicators(c.Request.Context(), req)
	h.respond(c, out, err)
}

// triggerRefresh handles POST /api/analytics/refresh
func (h *Handler) triggerRefresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.analytics.TriggerRefresh(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to trigger refresh",
			zap.String("job_type", req.JobType),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// getCacheStats handles GET /api/cache/stats
func (h *Handler) getCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.analytics.CacheStats())
}

// clearCache handles POST /api/cache/clear
func (h *Handler) clearCache(c *gin.Context) {
	h.analytics.ClearCache()
	h.log.Info("Analytics cache cleared")
	c.JSON(http.StatusOK, dto.ClearCacheResponse{Status: "cleared"})
}

// invalidateCache handles POST /api/cache/invalidate
func (h *Handler) invalidateCache(c *gin.Context) {
	var req dto.InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid cache invalidation request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	removed := h.analytics.InvalidateCache(req.Pattern)
	h.log.Info("Cache entries invalidated",
		zap.String("pattern", req.Pattern),
		zap.Int("removed", removed))
	c.JSON(http.StatusOK, dto.InvalidateCacheResponse{Removed: removed})
}

// getDashboard handles GET /api/dashboard
func (h *Handler) getDashboard(c *gin.Context) {
	req, ok := h.analyticsQuery(c)
	if !ok {
		return
	}
	out, err := h.analytics.Dashboard(c.Request.Context(), req)
	h.respond(c, out, err)
}

// generateReport handles POST /api/reports
func (h *Handler) generateReport(c *gin.Context) {
	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid report request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	report, err := h.analytics.GenerateReport(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to generate report",
			zap.String("company_id", req.CompanyID),
			zap.String("format", req.Format),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, report)
}
