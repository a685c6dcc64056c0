package repository

import (
	"context"
	"time"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

// MetricsFilter narrows a metric-row range query. Zero-valued fields are
// ignored. JobID filtering distinguishes the empty string (no filter) from
// the explicit company-wide rollup selection via RollupOnly.
type MetricsFilter struct {
	CompanyID  string
	JobID      string
	Source     string
	RollupOnly bool
	From       time.Time
	To         time.Time
}

// ApplicationFilter narrows a raw read-model query. Zero-valued fields are
// ignored; From/To bound AppliedAt.
type ApplicationFilter struct {
	CompanyID string
	JobID     string
	From      time.Time
	To        time.Time
}

// MetricsStore is the repository for the three derived metric families.
// Upserts are atomic per identity: two concurrent writers to the same
// (company, job, date bucket) key never interleave partial rows. Range
// queries return rows ordered by date bucket ascending.
type MetricsStore interface {
	UpsertPipelineMetrics(ctx context.Context, row *domain.PipelineMetricsRow) error
	UpsertSourcePerformance(ctx context.Context, row *domain.SourcePerformanceRow) error
	UpsertDiversityMetrics(ctx context.Context, row *domain.DiversityMetricsRow) error

	QueryPipelineMetrics(ctx context.Context, filter MetricsFilter) ([]*domain.PipelineMetricsRow, error)
	QuerySourcePerformance(ctx context.Context, filter MetricsFilter) ([]*domain.SourcePerformanceRow, error)
	QueryDiversityMetrics(ctx context.Context, filter MetricsFilter) ([]*domain.DiversityMetricsRow, error)
}

// ApplicationReader provides read-only access to the operational
// application/candidate read models this core aggregates from.
type ApplicationReader interface {
	// ListCompanies returns the distinct company IDs with any application.
	ListCompanies(ctx context.Context) ([]string, error)

	// ListJobs returns the job postings of one company, or of every company
	// when companyID is empty.
	ListJobs(ctx context.Context, companyID string) ([]domain.JobPosting, error)

	// ListApplications returns the application records matching the filter.
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]*domain.ApplicationRecord, error)
}
