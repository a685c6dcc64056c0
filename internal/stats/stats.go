// Package stats provides the pure bucketing and statistics functions used by
// the aggregation and query engines. Every function is total over well-formed
// input and returns a defined zero value instead of erroring.
package stats

import (
	"math"
	"sort"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

// CategorizeAge maps a raw age to its closed age bucket. A nil or
// non-positive age maps to the unknown bucket.
func CategorizeAge(age *int) domain.AgeBucket {
	if age == nil || *age <= 0 {
		return domain.AgeUnknown
	}
	switch a := *age; {
	case a < 25:
		return domain.AgeUnder25
	case a <= 34:
		return domain.Age25To34
	case a <= 44:
		return domain.Age35To44
	case a <= 54:
		return domain.Age45To54
	default:
		return domain.AgeOver55
	}
}

// ShannonDiversityIndex computes the normalized Shannon entropy of a
// distribution: -Σ p·ln(p) over nonzero categories, divided by
// ln(numCategories). The category arity is supplied by the caller rather
// than hardcoded, so distributions with fewer or more categories than a
// fixed constant are not systematically mis-scaled. Returns a value in [0,1];
// 0 when the distribution is empty or fewer than two categories are possible.
func ShannonDiversityIndex(dist domain.Distribution, numCategories int) float64 {
	total := dist.Total()
	if total == 0 || numCategories < 2 {
		return 0
	}

	entropy := 0.0
	for _, count := range dist {
		if count <= 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log(p)
	}

	index := entropy / math.Log(float64(numCategories))
	if index > 1 {
		return 1
	}
	if index < 0 {
		return 0
	}
	return index
}

// CategoryBias returns the largest absolute gap between a category's share of
// applicants and its share of hires, across every category present in the
// applicant distribution. The result is in [0,1]; 0 when either total is 0.
// This is a screening signal of representational skew, not a significance
// test.
func CategoryBias(applicants, hired domain.Distribution) float64 {
	applicantTotal := applicants.Total()
	hiredTotal := hired.Total()
	if applicantTotal == 0 || hiredTotal == 0 {
		return 0
	}

	maxGap := 0.0
	for category, count := range applicants {
		applicantRate := float64(count) / float64(applicantTotal)
		hiredRate := float64(hired[category]) / float64(hiredTotal)
		if gap := math.Abs(hiredRate - applicantRate); gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}

// GroupOutcome holds the funnel outcome of one demographic category
type GroupOutcome struct {
	Total int
	Hired int
}

// HireRateDisparity returns the spread between the best and worst hire rate
// across categories, in [-1,1]. The result is negated when the best rate is
// at or below 0.5, which downgrades spreads among uniformly low rates to a
// "no bias signal" reading. Categories with no records are ignored; fewer
// than two populated categories yield 0.
func HireRateDisparity(groups map[string]GroupOutcome) float64 {
	minRate := math.Inf(1)
	maxRate := math.Inf(-1)
	populated := 0

	for _, g := range groups {
		if g.Total == 0 {
			continue
		}
		populated++
		rate := float64(g.Hired) / float64(g.Total)
		if rate < minRate {
			minRate = rate
		}
		if rate > maxRate {
			maxRate = rate
		}
	}

	if populated < 2 {
		return 0
	}

	disparity := maxRate - minRate
	if maxRate <= 0.5 {
		return -disparity
	}
	return disparity
}

// Median returns the middle order statistic of the values, averaging the two
// middle elements for even-length input. The input does not need to be
// sorted. Returns 0 for empty input.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Percentile returns the p-th percentile of the values using the nearest-rank
// method, with the even-split midpoint averaged for the median. The input
// does not need to be sorted. Returns 0 for empty input.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	if p == 50 && len(sorted)%2 == 0 {
		mid := len(sorted) / 2
		return (sorted[mid-1] + sorted[mid]) / 2
	}

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// Mean returns the arithmetic mean of the values, or 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
