package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository"
)

// ReadModel implements repository.ApplicationReader against the recruiting
// events warehouse. The applications table is a denormalized join of
// application and candidate rows maintained by the operational ATS pipeline;
// this service only ever reads it.
type ReadModel struct {
	client *Client
	log    *zap.Logger
}

// NewReadModel creates a new ClickHouse-backed application reader
func NewReadModel(client *Client, log *zap.Logger) *ReadModel {
	return &ReadModel{client: client, log: log}
}

// ListCompanies returns the distinct company IDs with any application
func (r *ReadModel) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := r.client.Conn().Query(ctx,
		`SELECT DISTINCT company_id FROM applications FINAL ORDER BY company_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer r.closeRows(rows)

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", err)
	}
	return out, nil
}

// ListJobs returns the job postings of one company, or of every company when
// companyID is empty
func (r *ReadModel) ListJobs(ctx context.Context, companyID string) ([]domain.JobPosting, error) {
	query := `SELECT id, company_id, title FROM job_postings FINAL`
	var args []interface{}
	if companyID != "" {
		query += ` WHERE company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY id`

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job postings: %w", err)
	}
	defer r.closeRows(rows)

	var out []domain.JobPosting
	for rows.Next() {
		var job domain.JobPosting
		if err := rows.Scan(&job.ID, &job.CompanyID, &job.Title); err != nil {
			return nil, fmt.Errorf("failed to scan job posting row: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job posting rows: %w", err)
	}
	return out, nil
}

// ListApplications returns the application records matching the filter.
// From is inclusive and To exclusive on applied_at.
func (r *ReadModel) ListApplications(ctx context.Context, filter repository.ApplicationFilter) ([]*domain.ApplicationRecord, error) {
	query := `
	SELECT id, company_id, job_id, candidate_id, status, source, fit_score,
		acquisition_cost, gender, ethnicity, age, education, applied_at,
		last_updated
	FROM applications FINAL
	WHERE 1=1`

	var args []interface{}
	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if filter.JobID != "" {
		query += ` AND job_id = ?`
		args = append(args, filter.JobID)
	}
	if !filter.From.IsZero() {
		query += ` AND applied_at >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND applied_at < ?`
		args = append(args, filter.To)
	}
	query += ` ORDER BY applied_at ASC`

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer r.closeRows(rows)

	var out []*domain.ApplicationRecord
	for rows.Next() {
		var (
			app    domain.ApplicationRecord
			status string
			age    *int32
		)
		if err := rows.Scan(
			&app.ID, &app.CompanyID, &app.JobID, &app.CandidateID, &status,
			&app.Source, &app.FitScore, &app.AcquisitionCost, &app.Gender,
			&app.Ethnicity, &age, &app.Education, &app.AppliedAt,
			&app.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		app.Status = domain.ApplicationStatus(status)
		if age != nil {
			v := int(*age)
			app.Age = &v
		}
		out = append(out, &app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return out, nil
}

func (r *ReadModel) closeRows(rows driver.Rows) {
	if err := rows.Close(); err != nil {
		r.log.Error("Failed to close read model rows", zap.Error(err))
	}
}
