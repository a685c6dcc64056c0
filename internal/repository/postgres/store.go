package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository"
)

// Store implements repository.MetricsStore on Postgres. Writes use
// INSERT ... ON CONFLICT DO UPDATE, so an upsert is atomic per identity and
// concurrent aggregation runs never interleave partial rows. The company-wide
// rollup row is stored with an empty job_id.
type Store struct {
	client *Client
	log    *zap.Logger
}

// NewStore creates a new Postgres metrics store
func NewStore(client *Client, log *zap.Logger) *Store {
	return &Store{client: client, log: log}
}

// InitSchema creates the metric tables if they do not exist
func (s *Store) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pipeline_metrics (
			company_id            TEXT NOT NULL,
			job_id                TEXT NOT NULL DEFAULT '',
			date_bucket           DATE NOT NULL,
			total_applications    INT NOT NULL DEFAULT 0,
			applications_screened INT NOT NULL DEFAULT 0,
			shortlisted           INT NOT NULL DEFAULT 0,
			interviews_scheduled  INT NOT NULL DEFAULT 0,
			interviews_completed  INT NOT NULL DEFAULT 0,
			offers_extended       INT NOT NULL DEFAULT 0,
			offers_accepted       INT NOT NULL DEFAULT 0,
			candidates_hired      INT NOT NULL DEFAULT 0,
			candidates_rejected   INT NOT NULL DEFAULT 0,
			avg_days_to_screen    DOUBLE PRECISION,
			avg_days_to_interview DOUBLE PRECISION,
			avg_days_to_offer     DOUBLE PRECISION,
			avg_time_to_fill      DOUBLE PRECISION,
			updated_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (company_id, job_id, date_bucket)
		)`,
		`CREATE TABLE IF NOT EXISTS source_performance (
			company_id             TEXT NOT NULL,
			source                 TEXT NOT NULL,
			date_bucket            DATE NOT NULL,
			total_candidates       INT NOT NULL DEFAULT 0,
			qualified_candidates   INT NOT NULL DEFAULT 0,
			interviewed_candidates INT NOT NULL DEFAULT 0,
			hired_candidates       INT NOT NULL DEFAULT 0,
			avg_quality_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_cost_per_hire      DOUBLE PRECISION NOT NULL DEFAULT 0,
			conversion_rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
			roi                    DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (company_id, source, date_bucket)
		)`,
		`CREATE TABLE IF NOT EXISTS diversity_metrics (
			company_id             TEXT NOT NULL,
			job_id                 TEXT NOT NULL DEFAULT '',
			date_bucket            DATE NOT NULL,
			total_applicants       INT NOT NULL DEFAULT 0,
			gender_distribution    JSONB NOT NULL DEFAULT '{}',
			ethnicity_distribution JSONB NOT NULL DEFAULT '{}',
			age_distribution       JSONB NOT NULL DEFAULT '{}',
			education_distribution JSONB NOT NULL DEFAULT '{}',
			hired_gender           JSONB NOT NULL DEFAULT '{}',
			hired_ethnicity        JSONB NOT NULL DEFAULT '{}',
			hired_age              JSONB NOT NULL DEFAULT '{}',
			hired_education        JSONB NOT NULL DEFAULT '{}',
			bias_indicators        JSONB NOT NULL DEFAULT '{}',
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (company_id, job_id, date_bucket)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_metrics_bucket ON pipeline_metrics (date_bucket)`,
		`CREATE INDEX IF NOT EXISTS idx_source_performance_bucket ON source_performance (date_bucket)`,
		`CREATE INDEX IF NOT EXISTS idx_diversity_metrics_bucket ON diversity_metrics (date_bucket)`,
	}

	for _, stmt := range statements {
		if _, err := s.client.Pool().Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize metrics schema: %w", err)
		}
	}

	s.log.Info("Postgres metrics schema initialized successfully")
	return nil
}

// UpsertPipelineMetrics inserts or replaces the row for its identity
func (s *Store) UpsertPipelineMetrics(ctx context.Context, row *domain.PipelineMetricsRow) error {
	query := `
	INSERT INTO pipeline_metrics (
		company_id, job_id, date_bucket,
		total_applications, applications_screened, shortlisted,
		interviews_scheduled, interviews_completed, offers_extended,
		offers_accepted, candidates_hired, candidates_rejected,
		avg_days_to_screen, avg_days_to_interview, avg_days_to_offer,
		avg_time_to_fill, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
	ON CONFLICT (company_id, job_id, date_bucket) DO UPDATE SET
		total_applications    = EXCLUDED.total_applications,
		applications_screened = EXCLUDED.applications_screened,
		shortlisted           = EXCLUDED.shortlisted,
		interviews_scheduled  = EXCLUDED.interviews_scheduled,
		interviews_completed  = EXCLUDED.interviews_completed,
		offers_extended       = EXCLUDED.offers_extended,
		offers_accepted       = EXCLUDED.offers_accepted,
		candidates_hired      = EXCLUDED.candidates_hired,
		candidates_rejected   = EXCLUDED.candidates_rejected,
		avg_days_to_screen    = EXCLUDED.avg_days_to_screen,
		avg_days_to_interview = EXCLUDED.avg_days_to_interview,
		avg_days_to_offer     = EXCLUDED.avg_days_to_offer,
		avg_time_to_fill      = EXCLUDED.avg_time_to_fill,
		updated_at            = now()
	`

	_, err := s.client.Pool().Exec(ctx, query,
		row.CompanyID, row.JobID, row.DateBucket,
		row.TotalApplications, row.ApplicationsScreened, row.Shortlisted,
		row.InterviewsScheduled, row.InterviewsCompleted, row.OffersExtended,
		row.OffersAccepted, row.CandidatesHired, row.CandidatesRejected,
		row.AvgDaysToScreen, row.AvgDaysToInterview, row.AvgDaysToOffer,
		row.AvgTimeToFill,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pipeline metrics: %w", err)
	}
	return nil
}

// UpsertSourcePerformance inserts or replaces the row for its identity
func (s *Store) UpsertSourcePerformance(ctx context.Context, row *domain.SourcePerformanceRow) error {
	query := `
	INSERT INTO source_performance (
		company_id, source, date_bucket,
		total_candidates, qualified_candidates, interviewed_candidates,
		hired_candidates, avg_quality_score, avg_cost_per_hire,
		conversion_rate, roi, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
	ON CONFLICT (company_id, source, date_bucket) DO UPDATE SET
		total_candidates       = EXCLUDED.total_candidates,
		qualified_candidates   = EXCLUDED.qualified_candidates,
		interviewed_candidates = EXCLUDED.interviewed_candidates,
		hired_candidates       = EXCLUDED.hired_candidates,
		avg_quality_score      = EXCLUDED.avg_quality_score,
		avg_cost_per_hire      = EXCLUDED.avg_cost_per_hire,
		conversion_rate        = EXCLUDED.conversion_rate,
		roi                    = EXCLUDED.roi,
		updated_at             = now()
	`

	_, err := s.client.Pool().Exec(ctx, query,
		row.CompanyID, row.Source, row.DateBucket,
		row.TotalCandidates, row.QualifiedCandidates, row.InterviewedCandidates,
		row.HiredCandidates, row.AvgQualityScore, row.AvgCostPerHire,
		row.ConversionRate, row.ROI,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert source performance: %w", err)
	}
	return nil
}

// UpsertDiversityMetrics inserts or replaces the row for its identity
func (s *Store) UpsertDiversityMetrics(ctx context.Context, row *domain.DiversityMetricsRow) error {
	dists := make([][]byte, 0, 9)
	for _, d := range []interface{}{
		row.GenderDistribution, row.EthnicityDistribution, row.AgeDistribution,
		row.EducationDistribution, row.HiredGender, row.HiredEthnicity,
		row.HiredAge, row.HiredEducation, row.BiasIndicators,
	} {
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal diversity distribution: %w", err)
		}
		dists = append(dists, b)
	}

	query := `
	INSERT INTO diversity_metrics (
		company_id, job_id, date_bucket, total_applicants,
		gender_distribution, ethnicity_distribution, age_distribution,
		education_distribution, hired_gender, hired_ethnicity, hired_age,
		hired_education, bias_indicators, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
	ON CONFLICT (company_id, job_id, date_bucket) DO UPDATE SET
		total_applicants       = EXCLUDED.total_applicants,
		gender_distribution    = EXCLUDED.gender_distribution,
		ethnicity_distribution = EXCLUDED.ethnicity_distribution,
		age_distribution       = EXCLUDED.age_distribution,
		education_distribution = EXCLUDED.education_distribution,
		hired_gender           = EXCLUDED.hired_gender,
		hired_ethnicity        = EXCLUDED.hired_ethnicity,
		hired_age              = EXCLUDED.hired_age,
		hired_education        = EXCLUDED.hired_education,
		bias_indicators        = EXCLUDED.bias_indicators,
		updated_at             = now()
	`

	_, err := s.client.Pool().Exec(ctx, query,
		row.CompanyID, row.JobID, row.DateBucket, row.TotalApplicants,
		dists[0], dists[1], dists[2], dists[3], dists[4], dists[5],
		dists[6], dists[7], dists[8],
	)
	if err != nil {
		return fmt.Errorf("failed to upsert diversity metrics: %w", err)
	}
	return nil
}

func buildWindowClause(filter repository.MetricsFilter, args []interface{}) (string, []interface{}) {
	clause := ""
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clause += fmt.Sprintf(" AND date_bucket >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clause += fmt.Sprintf(" AND date_bucket <= $%d", len(args))
	}
	return clause, args
}

// QueryPipelineMetrics returns matching rows ordered by date bucket ascending
func (s *Store) QueryPipelineMetrics(ctx context.Context, filter repository.MetricsFilter) ([]*domain.PipelineMetricsRow, error) {
	query := `
	SELECT company_id, job_id, date_bucket,
		total_applications, applications_screened, shortlisted,
		interviews_scheduled, interviews_completed, offers_extended,
		offers_accepted, candidates_hired, candidates_rejected,
		avg_days_to_screen, avg_days_to_interview, avg_days_to_offer,
		avg_time_to_fill, updated_at
	FROM pipeline_metrics
	WHERE 1=1`

	var args []interface{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.JobID != "" {
		args = append(args, filter.JobID)
		query += fmt.Sprintf(" AND job_id = $%d", len(args))
	} else if filter.RollupOnly {
		query += " AND job_id = ''"
	}
	var clause string
	clause, args = buildWindowClause(filter, args)
	query += clause + " ORDER BY date_bucket ASC"

	rows, err := s.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline metrics: %w", err)
	}
	defer rows.Close()

	var out []*domain.PipelineMetricsRow
	for rows.Next() {
		var r domain.PipelineMetricsRow
		if err := rows.Scan(
			&r.CompanyID, &r.JobID, &r.DateBucket,
			&r.TotalApplications, &r.ApplicationsScreened, &r.Shortlisted,
			&r.InterviewsScheduled, &r.InterviewsCompleted, &r.OffersExtended,
			&r.OffersAccepted, &r.CandidatesHired, &r.CandidatesRejected,
			&r.AvgDaysToScreen, &r.AvgDaysToInterview, &r.AvgDaysToOffer,
			&r.AvgTimeToFill, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline metrics row: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pipeline metrics rows: %w", err)
	}
	return out, nil
}

// QuerySourcePerformance returns matching rows ordered by date bucket ascending
func (s *Store) QuerySourcePerformance(ctx context.Context, filter repository.MetricsFilter) ([]*domain.SourcePerformanceRow, error) {
	query := `
	SELECT company_id, source, date_bucket,
		total_candidates, qualified_candidates, interviewed_candidates,
		hired_candidates, avg_quality_score, avg_cost_per_hire,
		conversion_rate, roi, updated_at
	FROM source_performance
	WHERE 1=1`

	var args []interface{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	var clause string
	clause, args = buildWindowClause(filter, args)
	query += clause + " ORDER BY date_bucket ASC, source ASC"

	rows, err := s.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query source performance: %w", err)
	}
	defer rows.Close()

	var out []*domain.SourcePerformanceRow
	for rows.Next() {
		var r domain.SourcePerformanceRow
		if err := rows.Scan(
			&r.CompanyID, &r.Source, &r.DateBucket,
			&r.TotalCandidates, &r.QualifiedCandidates, &r.InterviewedCandidates,
			&r.HiredCandidates, &r.AvgQualityScore, &r.AvgCostPerHire,
			&r.ConversionRate, &r.ROI, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan source performance row: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source performance rows: %w", err)
	}
	return out, nil
}

// QueryDiversityMetrics returns matching rows ordered by date bucket ascending
func (s *Store) QueryDiversityMetrics(ctx context.Context, filter repository.MetricsFilter) ([]*domain.DiversityMetricsRow, error) {
	query := `
	SELECT company_id, job_id, date_bucket, total_applicants,
		gender_distribution, ethnicity_distribution, age_distribution,
		education_distribution, hired_gender, hired_ethnicity, hired_age,
		hired_education, bias_indicators, updated_at
	FROM diversity_metrics
	WHERE 1=1`

	var args []interface{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.JobID != "" {
		args = append(args, filter.JobID)
		query += fmt.Sprintf(" AND job_id = $%d", len(args))
	} else if filter.RollupOnly {
		query += " AND job_id = ''"
	}
	var clause string
	clause, args = buildWindowClause(filter, args)
	query += clause + " ORDER BY date_bucket ASC"

	rows, err := s.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query diversity metrics: %w", err)
	}
	defer rows.Close()

	var out []*domain.DiversityMetricsRow
	for rows.Next() {
		r, err := scanDiversityRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diversity metrics rows: %w", err)
	}
	return out, nil
}

func scanDiversityRow(rows pgx.Rows) (*domain.DiversityMetricsRow, error) {
	var r domain.DiversityMetricsRow
	raw := make([][]byte, 9)
	if err := rows.Scan(
		&r.CompanyID, &r.JobID, &r.DateBucket, &r.TotalApplicants,
		&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &raw[6], &raw[7], &raw[8],
		&r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan diversity metrics row: %w", err)
	}

	targets := []interface{}{
		&r.GenderDistribution, &r.EthnicityDistribution, &r.AgeDistribution,
		&r.EducationDistribution, &r.HiredGender, &r.HiredEthnicity,
		&r.HiredAge, &r.HiredEducation, &r.BiasIndicators,
	}
	for i, target := range targets {
		if err := json.Unmarshal(raw[i], target); err != nil {
			return nil, fmt.Errorf("failed to unmarshal diversity distribution: %w", err)
		}
	}
	return &r, nil
}
