package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

// MemoryStore is an in-memory MetricsStore and ApplicationReader. It backs
// local development and the end-to-end tests; upserts take the store lock, so
// the per-identity atomicity contract holds.
type MemoryStore struct {
	mu        sync.RWMutex
	pipeline  map[domain.MetricsIdentity]*domain.PipelineMetricsRow
	sources   map[domain.MetricsIdentity]*domain.SourcePerformanceRow
	diversity map[domain.MetricsIdentity]*domain.DiversityMetricsRow

	apps map[string]*domain.ApplicationRecord
	jobs map[string]domain.JobPosting
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pipeline:  make(map[domain.MetricsIdentity]*domain.PipelineMetricsRow),
		sources:   make(map[domain.MetricsIdentity]*domain.SourcePerformanceRow),
		diversity: make(map[domain.MetricsIdentity]*domain.DiversityMetricsRow),
		apps:      make(map[string]*domain.ApplicationRecord),
		jobs:      make(map[string]domain.JobPosting),
	}
}

// SeedApplication adds one application record to the read model.
func (s *MemoryStore) SeedApplication(app *domain.ApplicationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = app
}

// SeedJob adds one job posting to the read model.
func (s *MemoryStore) SeedJob(job domain.JobPosting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// UpsertPipelineMetrics inserts or replaces the row for its identity.
func (s *MemoryStore) UpsertPipelineMetrics(_ context.Context, row *domain.PipelineMetricsRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *row
	s.pipeline[row.Identity()] = &clone
	return nil
}

// UpsertSourcePerformance inserts or replaces the row for its identity.
func (s *MemoryStore) UpsertSourcePerformance(_ context.Context, row *domain.SourcePerformanceRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *row
	s.sources[row.Identity()] = &clone
	return nil
}

// UpsertDiversityMetrics inserts or replaces the row for its identity.
func (s *MemoryStore) UpsertDiversityMetrics(_ context.Context, row *domain.DiversityMetricsRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *row
	clone.GenderDistribution = row.GenderDistribution.Clone()
	clone.EthnicityDistribution = row.EthnicityDistribution.Clone()
	clone.AgeDistribution = row.AgeDistribution.Clone()
	clone.EducationDistribution = row.EducationDistribution.Clone()
	clone.HiredGender = row.HiredGender.Clone()
	clone.HiredEthnicity = row.HiredEthnicity.Clone()
	clone.HiredAge = row.HiredAge.Clone()
	clone.HiredEducation = row.HiredEducation.Clone()
	s.diversity[row.Identity()] = &clone
	return nil
}

func matchesWindow(bucket time.Time, filter MetricsFilter) bool {
	if !filter.From.IsZero() && bucket.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && bucket.After(filter.To) {
		return false
	}
	return true
}

// QueryPipelineMetrics returns matching rows ordered by date bucket ascending.
func (s *MemoryStore) QueryPipelineMetrics(_ context.Context, filter MetricsFilter) ([]*domain.PipelineMetricsRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PipelineMetricsRow
	for id, row := range s.pipeline {
		if filter.CompanyID != "" && id.CompanyID != filter.CompanyID {
			continue
		}
		if filter.JobID != "" && id.JobID != filter.JobID {
			continue
		}
		if filter.RollupOnly && id.JobID != "" {
			continue
		}
		if !matchesWindow(id.DateBucket, filter) {
			continue
		}
		clone := *row
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateBucket.Before(out[j].DateBucket) })
	return out, nil
}

// QuerySourcePerformance returns matching rows ordered by date bucket ascending.
func (s *MemoryStore) QuerySourcePerformance(_ context.Context, filter MetricsFilter) ([]*domain.SourcePerformanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SourcePerformanceRow
	for _, row := range s.sources {
		if filter.CompanyID != "" && row.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Source != "" && row.Source != filter.Source {
			continue
		}
		if !matchesWindow(row.DateBucket, filter) {
			continue
		}
		clone := *row
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateBucket.Equal(out[j].DateBucket) {
			return out[i].DateBucket.Before(out[j].DateBucket)
		}
		return out[i].Source < out[j].Source
	})
	return out, nil
}

// QueryDiversityMetrics returns matching rows ordered by date bucket ascending.
func (s *MemoryStore) QueryDiversityMetrics(_ context.Context, filter MetricsFilter) ([]*domain.DiversityMetricsRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.DiversityMetricsRow
	for id, row := range s.diversity {
		if filter.CompanyID != "" && id.CompanyID != filter.CompanyID {
			continue
		}
		if filter.JobID != "" && id.JobID != filter.JobID {
			continue
		}
		if filter.RollupOnly && id.JobID != "" {
			continue
		}
		if !matchesWindow(id.DateBucket, filter) {
			continue
		}
		clone := *row
		clone.GenderDistribution = row.GenderDistribution.Clone()
		clone.EthnicityDistribution = row.EthnicityDistribution.Clone()
		clone.AgeDistribution = row.AgeDistribution.Clone()
		clone.EducationDistribution = row.EducationDistribution.Clone()
		clone.HiredGender = row.HiredGender.Clone()
		clone.HiredEthnicity = row.HiredEthnicity.Clone()
		clone.HiredAge = row.HiredAge.Clone()
		clone.HiredEducation = row.HiredEducation.Clone()
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateBucket.Before(out[j].DateBucket) })
	return out, nil
}

// ListCompanies returns the distinct company IDs present in the read model,
// sorted for deterministic fan-out order.
func (s *MemoryStore) ListCompanies(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, app := range s.apps {
		seen[app.CompanyID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// ListJobs returns the job postings of one company, or all postings when
// companyID is empty.
func (s *MemoryStore) ListJobs(_ context.Context, companyID string) ([]domain.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.JobPosting
	for _, job := range s.jobs {
		if companyID != "" && job.CompanyID != companyID {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListApplications returns the application records matching the filter.
func (s *MemoryStore) ListApplications(_ context.Context, filter ApplicationFilter) ([]*domain.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ApplicationRecord
	for _, app := range s.apps {
		if filter.CompanyID != "" && app.CompanyID != filter.CompanyID {
			continue
		}
		if filter.JobID != "" && app.JobID != filter.JobID {
			continue
		}
		if !filter.From.IsZero() && app.AppliedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !app.AppliedAt.Before(filter.To) {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
