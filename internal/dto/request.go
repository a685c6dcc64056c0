package dto

import (
	"fmt"
	"time"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

const dateLayout = "2006-01-02"

// AnalyticsRequest represents the shared query parameters of the analytics endpoints
type AnalyticsRequest struct {
	CompanyID   string `form:"company_id" example:"cmp_123"`
	JobID       string `form:"job_id" example:"job_456"`
	Source      string `form:"source" example:"referral"`
	StartDate   string `form:"start_date" example:"2025-05-01"`
	EndDate     string `form:"end_date" example:"2025-05-31"`
	Granularity string `form:"granularity" example:"daily"`
	Limit       int    `form:"limit" example:"5"`
}

// Query converts the request into a domain analytics query
func (r *AnalyticsRequest) Query() (domain.AnalyticsQuery, error) {
	q := domain.AnalyticsQuery{
		CompanyID:   r.CompanyID,
		JobID:       r.JobID,
		Source:      r.Source,
		Granularity: r.Granularity,
	}

	if r.StartDate != "" {
		t, err := time.Parse(dateLayout, r.StartDate)
		if err != nil {
			return q, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", r.StartDate)
		}
		q.StartDate = &t
	}
	if r.EndDate != "" {
		t, err := time.Parse(dateLayout, r.EndDate)
		if err != nil {
			return q, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", r.EndDate)
		}
		q.EndDate = &t
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return q, fmt.Errorf("end_date must not be before start_date")
	}

	return q, nil
}

// RefreshRequest represents an on-demand aggregation trigger request
type RefreshRequest struct {
	JobType    string `json:"job_type" example:"all"`
	CompanyID  string `json:"company_id" example:"cmp_123"`
	DateBucket string `json:"date_bucket" example:"2025-05-10"`
}

// InvalidateCacheRequest represents a cache invalidation request
type InvalidateCacheRequest struct {
	Pattern string `json:"pattern" binding:"required" example:"company:cmp_123"`
}

// GenerateReportRequest represents a report generation request
type GenerateReportRequest struct {
	CompanyID string   `json:"company_id" example:"cmp_123"`
	JobID     string   `json:"job_id" example:"job_456"`
	StartDate string   `json:"start_date" example:"2025-05-01"`
	EndDate   string   `json:"end_date" example:"2025-05-31"`
	Sections  []string `json:"sections" binding:"required,min=1" example:"summary,sources"`
	Format    string   `json:"format" binding:"required" example:"csv"`
}

// Query converts the report request into a domain analytics query
func (r *GenerateReportRequest) Query() (domain.AnalyticsQuery, error) {
	ar := AnalyticsRequest{
		CompanyID: r.CompanyID,
		JobID:     r.JobID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}
	return ar.Query()
}
