package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestCategorizeAge_Boundaries(t *testing.T) {
	cases := []struct {
		name string
		age  *int
		want domain.AgeBucket
	}{
		{"nil age", nil, domain.AgeUnknown},
		{"zero age", intPtr(0), domain.AgeUnknown},
		{"negative age", intPtr(-3), domain.AgeUnknown},
		{"just under 25", intPtr(24), domain.AgeUnder25},
		{"lower bound 25", intPtr(25), domain.Age25To34},
		{"upper bound 34", intPtr(34), domain.Age25To34},
		{"lower bound 35", intPtr(35), domain.Age35To44},
		{"upper bound 44", intPtr(44), domain.Age35To44},
		{"lower bound 45", intPtr(45), domain.Age45To54},
		{"upper bound 54", intPtr(54), domain.Age45To54},
		{"lower bound 55", intPtr(55), domain.AgeOver55},
		{"well over 55", intPtr(72), domain.AgeOver55},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CategorizeAge(tc.age))
		})
	}
}

func TestShannonDiversityIndex_UniformDistribution(t *testing.T) {
	dist := domain.Distribution{"a": 10, "b": 10, "c": 10, "d": 10}
	assert.InDelta(t, 1.0, ShannonDiversityIndex(dist, 4), 1e-9)
}

func TestShannonDiversityIndex_SingleCategory(t *testing.T) {
	dist := domain.Distribution{"a": 25}
	assert.Equal(t, 0.0, ShannonDiversityIndex(dist, 4))
}

func TestShannonDiversityIndex_EmptyDistribution(t *testing.T) {
	assert.Equal(t, 0.0, ShannonDiversityIndex(domain.Distribution{}, 4))
}

func TestShannonDiversityIndex_ArityNotHardcoded(t *testing.T) {
	// A uniform two-category distribution is maximally diverse over an arity
	// of 2, but only partially diverse over an arity of 4.
	dist := domain.Distribution{"a": 5, "b": 5}

	assert.InDelta(t, 1.0, ShannonDiversityIndex(dist, 2), 1e-9)
	assert.InDelta(t, math.Log(2)/math.Log(4), ShannonDiversityIndex(dist, 4), 1e-9)
}

func TestShannonDiversityIndex_AlwaysInUnitInterval(t *testing.T) {
	dists := []domain.Distribution{
		{"a": 1},
		{"a": 1, "b": 99},
		{"a": 33, "b": 33, "c": 34},
		{"a": 7, "b": 11, "c": 13, "d": 17, "e": 19},
	}
	for _, dist := range dists {
		for arity := 2; arity <= 6; arity++ {
			idx := ShannonDiversityIndex(dist, arity)
			assert.GreaterOrEqual(t, idx, 0.0)
			assert.LessOrEqual(t, idx, 1.0)
		}
	}
}

func TestCategoryBias_ProportionalHiring(t *testing.T) {
	applicants := domain.Distribution{"a": 60, "b": 40}
	hired := domain.Distribution{"a": 6, "b": 4}
	assert.InDelta(t, 0.0, CategoryBias(applicants, hired), 1e-9)
}

func TestCategoryBias_KnownGap(t *testing.T) {
	// Applicants split 60/40, hires split 80/20: the larger gap is |0.8-0.6|.
	applicants := domain.Distribution{"a": 60, "b": 40}
	hired := domain.Distribution{"a": 80, "b": 20}
	assert.InDelta(t, 0.2, CategoryBias(applicants, hired), 1e-9)
}

func TestCategoryBias_MonotoneInDivergence(t *testing.T) {
	applicants := domain.Distribution{"a": 50, "b": 50}

	prev := -1.0
	for _, hiredA := range []int{5, 6, 7, 8, 9} {
		hired := domain.Distribution{"a": hiredA, "b": 10 - hiredA}
		bias := CategoryBias(applicants, hired)
		assert.Greater(t, bias, prev)
		prev = bias
	}
}

func TestCategoryBias_ZeroTotals(t *testing.T) {
	assert.Equal(t, 0.0, CategoryBias(domain.Distribution{}, domain.Distribution{"a": 1}))
	assert.Equal(t, 0.0, CategoryBias(domain.Distribution{"a": 1}, domain.Distribution{}))
}

func TestCategoryBias_CategoryMissingFromHired(t *testing.T) {
	applicants := domain.Distribution{"a": 50, "b": 50}
	hired := domain.Distribution{"a": 10}
	assert.InDelta(t, 0.5, CategoryBias(applicants, hired), 1e-9)
}

func TestHireRateDisparity_SpreadAboveHalf(t *testing.T) {
	groups := map[string]GroupOutcome{
		"a": {Total: 10, Hired: 9},
		"b": {Total: 10, Hired: 2},
	}
	assert.InDelta(t, 0.7, HireRateDisparity(groups), 1e-9)
}

func TestHireRateDisparity_LowRatesNegated(t *testing.T) {
	groups := map[string]GroupOutcome{
		"a": {Total: 10, Hired: 4},
		"b": {Total: 10, Hired: 1},
	}
	assert.InDelta(t, -0.3, HireRateDisparity(groups), 1e-9)
}

func TestHireRateDisparity_FewerThanTwoGroups(t *testing.T) {
	assert.Equal(t, 0.0, HireRateDisparity(nil))
	assert.Equal(t, 0.0, HireRateDisparity(map[string]GroupOutcome{
		"a": {Total: 10, Hired: 5},
	}))
	assert.Equal(t, 0.0, HireRateDisparity(map[string]GroupOutcome{
		"a": {Total: 10, Hired: 5},
		"b": {Total: 0, Hired: 0},
	}))
}

func TestMedian_OddAndEvenLength(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 0.0, Median(nil))
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 10.0, Percentile(values, 100))
	assert.Equal(t, 9.0, Percentile(values, 90))
	assert.Equal(t, 5.5, Percentile(values, 50))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}
