package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

var testBucket = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

func TestMemoryStore_QueryDiversityMetrics_ReturnsClones(t *testing.T) {
	store := NewMemoryStore()

	row := &domain.DiversityMetricsRow{
		CompanyID:             "c1",
		DateBucket:            testBucket,
		TotalApplicants:       10,
		GenderDistribution:    domain.Distribution{"female": 5, "male": 5},
		EthnicityDistribution: domain.Distribution{},
		AgeDistribution:       domain.Distribution{},
		EducationDistribution: domain.Distribution{},
		HiredGender:           domain.Distribution{"female": 1},
		HiredEthnicity:        domain.Distribution{},
		HiredAge:              domain.Distribution{},
		HiredEducation:        domain.Distribution{},
	}
	assert.NoError(t, store.UpsertDiversityMetrics(context.Background(), row))

	first, err := store.QueryDiversityMetrics(context.Background(), MetricsFilter{CompanyID: "c1"})
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	// Callers may freely mutate returned rows without reaching the store.
	first[0].TotalApplicants = 999
	first[0].GenderDistribution["female"] = 42
	first[0].HiredGender["male"] = 7

	second, err := store.QueryDiversityMetrics(context.Background(), MetricsFilter{CompanyID: "c1"})
	assert.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, 10, second[0].TotalApplicants)
	assert.Equal(t, 5, second[0].GenderDistribution["female"])
	assert.Equal(t, domain.Distribution{"female": 1}, second[0].HiredGender)
}

func TestMemoryStore_UpsertDiversityMetrics_DetachesFromInput(t *testing.T) {
	store := NewMemoryStore()

	row := &domain.DiversityMetricsRow{
		CompanyID:          "c1",
		DateBucket:         testBucket,
		GenderDistribution: domain.Distribution{"female": 3},
	}
	assert.NoError(t, store.UpsertDiversityMetrics(context.Background(), row))

	row.GenderDistribution["female"] = 100

	out, err := store.QueryDiversityMetrics(context.Background(), MetricsFilter{CompanyID: "c1"})
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 3, out[0].GenderDistribution["female"])
}
