package domain

import "time"

// MetricsIdentity identifies one derived metric row. JobID is empty for the
// company-wide rollup row.
type MetricsIdentity struct {
	CompanyID  string
	JobID      string
	DateBucket time.Time
}

// PipelineMetricsRow holds per-stage funnel counts for one
// (company, job, date bucket) identity. The four average fields are nil when
// no application in the bucket reached the corresponding milestone.
type PipelineMetricsRow struct {
	CompanyID             string
	JobID                 string
	DateBucket            time.Time
	TotalApplications     int
	ApplicationsScreened  int
	Shortlisted           int
	InterviewsScheduled   int
	InterviewsCompleted   int
	OffersExtended        int
	OffersAccepted        int
	CandidatesHired       int
	CandidatesRejected    int
	AvgDaysToScreen       *float64
	AvgDaysToInterview    *float64
	AvgDaysToOffer        *float64
	AvgTimeToFill         *float64
	UpdatedAt             time.Time
}

// SourcePerformanceRow holds acquisition funnel counts for one
// (company, source, date bucket) identity.
type SourcePerformanceRow struct {
	CompanyID            string
	Source               string
	DateBucket           time.Time
	TotalCandidates      int
	QualifiedCandidates  int
	InterviewedCandidates int
	HiredCandidates      int
	AvgQualityScore      float64
	AvgCostPerHire       float64
	ConversionRate       float64
	ROI                  float64
	UpdatedAt            time.Time
}

// Distribution maps a category label to a count. Insertion order is
// irrelevant; labels are open-ended except for age buckets.
type Distribution map[string]int

// Clone returns a copy of the distribution.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Total returns the sum of all category counts.
func (d Distribution) Total() int {
	total := 0
	for _, v := range d {
		total += v
	}
	return total
}

// BiasIndicators holds one representational-gap score in [0,1] per
// demographic axis.
type BiasIndicators struct {
	Gender    float64 `json:"gender"`
	Ethnicity float64 `json:"ethnicity"`
	Age       float64 `json:"age"`
	Education float64 `json:"education"`
}

// BiasDetection is the standalone bias report: per-axis hire-rate disparity
// scores plus the axes whose absolute score crossed the detection threshold.
type BiasDetection struct {
	Indicators  BiasIndicators `json:"indicators"`
	FlaggedAxes []string       `json:"flagged_axes"`
}

// DiversityMetricsRow holds applicant and hired demographic distributions for
// one (company, job, date bucket) identity. Every key in a hired distribution
// also appears in the matching applicant distribution.
type DiversityMetricsRow struct {
	CompanyID              string
	JobID                  string
	DateBucket             time.Time
	TotalApplicants        int
	GenderDistribution     Distribution
	EthnicityDistribution  Distribution
	AgeDistribution        Distribution
	EducationDistribution  Distribution
	HiredGender            Distribution
	HiredEthnicity         Distribution
	HiredAge               Distribution
	HiredEducation         Distribution
	BiasIndicators         BiasIndicators
	UpdatedAt              time.Time
}

// Identity returns the row's metrics identity.
func (r PipelineMetricsRow) Identity() MetricsIdentity {
	return MetricsIdentity{CompanyID: r.CompanyID, JobID: r.JobID, DateBucket: r.DateBucket}
}

// Identity returns the row's metrics identity, with the source standing in
// for the job dimension.
func (r SourcePerformanceRow) Identity() MetricsIdentity {
	return MetricsIdentity{CompanyID: r.CompanyID, JobID: "source:" + r.Source, DateBucket: r.DateBucket}
}

// Identity returns the row's metrics identity.
func (r DiversityMetricsRow) Identity() MetricsIdentity {
	return MetricsIdentity{CompanyID: r.CompanyID, JobID: r.JobID, DateBucket: r.DateBucket}
}
