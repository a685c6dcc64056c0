package domain

import "time"

// AnalyticsQuery carries the filter dimensions shared by every analytics
// operation. It is a value object: two queries with the same filter values
// derive the same cache key.
type AnalyticsQuery struct {
	CompanyID   string
	JobID       string
	Source      string
	StartDate   *time.Time
	EndDate     *time.Time
	Granularity string
}

// AnalyticsSummary is the headline view of the hiring funnel
type AnalyticsSummary struct {
	TotalApplications int     `json:"total_applications"`
	TotalScreened     int     `json:"total_screened"`
	TotalShortlisted  int     `json:"total_shortlisted"`
	TotalHired        int     `json:"total_hired"`
	TotalRejected     int     `json:"total_rejected"`
	OverallConversion float64 `json:"overall_conversion"`
	AverageTimeToFill float64 `json:"average_time_to_fill"`
}

// TimeToFillMetrics summarizes hiring latency over matching metric rows
type TimeToFillMetrics struct {
	AverageDays     float64 `json:"average_days"`
	MedianDays      float64 `json:"median_days"`
	MinDays         float64 `json:"min_days"`
	MaxDays         float64 `json:"max_days"`
	TotalPositions  int     `json:"total_positions"`
	FilledPositions int     `json:"filled_positions"`
	OpenPositions   int     `json:"open_positions"`
}

// ConversionRates holds the five sequential funnel ratios plus the overall
// application-to-hire rate, each expressed as a percentage.
type ConversionRates struct {
	ApplicationToScreening float64 `json:"application_to_screening"`
	ScreeningToShortlist   float64 `json:"screening_to_shortlist"`
	ShortlistToInterview   float64 `json:"shortlist_to_interview"`
	InterviewToOffer       float64 `json:"interview_to_offer"`
	OfferToHire            float64 `json:"offer_to_hire"`
	OverallConversion      float64 `json:"overall_conversion"`
}

// PipelineStage identifies one of the six stages examined for bottlenecks
type PipelineStage string

const (
	StageApplied            PipelineStage = "applied"
	StageScreening          PipelineStage = "screening"
	StageShortlisted        PipelineStage = "shortlisted"
	StageInterviewScheduled PipelineStage = "interview_scheduled"
	StageInterviewCompleted PipelineStage = "interview_completed"
	StageOfferExtended      PipelineStage = "offer_extended"
)

// StageMetrics holds the count and average dwell time for one pipeline stage
type StageMetrics struct {
	Stage          PipelineStage `json:"stage"`
	Count          int           `json:"count"`
	AvgTimeInStage float64       `json:"avg_time_in_stage"`
}

// PipelineBottleneck is one stage annotated with its drop-off to the next
// stage and whether it crosses the bottleneck thresholds.
type PipelineBottleneck struct {
	Stage          PipelineStage `json:"stage"`
	Count          int           `json:"count"`
	DropOffRate    float64       `json:"drop_off_rate"`
	AvgTimeInStage float64       `json:"avg_time_in_stage"`
	IsBottleneck   bool          `json:"is_bottleneck"`
}

// SourceAnalytics summarizes one acquisition source across matching rows
type SourceAnalytics struct {
	Source                string  `json:"source"`
	TotalCandidates       int     `json:"total_candidates"`
	QualifiedCandidates   int     `json:"qualified_candidates"`
	InterviewedCandidates int     `json:"interviewed_candidates"`
	HiredCandidates       int     `json:"hired_candidates"`
	ConversionRate        float64 `json:"conversion_rate"`
	QualityScore          float64 `json:"quality_score"`
	CostPerHire           float64 `json:"cost_per_hire"`
	ROI                   float64 `json:"roi"`
}

// DiversityAnalytics is the aggregated diversity view across matching rows
type DiversityAnalytics struct {
	TotalApplicants       int            `json:"total_applicants"`
	GenderDistribution    Distribution   `json:"gender_distribution"`
	EthnicityDistribution Distribution   `json:"ethnicity_distribution"`
	AgeDistribution       Distribution   `json:"age_distribution"`
	EducationDistribution Distribution   `json:"education_distribution"`
	HiredGender           Distribution   `json:"hired_gender"`
	HiredEthnicity        Distribution   `json:"hired_ethnicity"`
	HiredAge              Distribution   `json:"hired_age"`
	HiredEducation        Distribution   `json:"hired_education"`
	DiversityIndex        float64        `json:"diversity_index"`
	BiasIndicators        BiasIndicators `json:"bias_indicators"`
	BiasAlerts            []string       `json:"bias_alerts"`
}

// TrendPoint is one day of the dashboard trend series
type TrendPoint struct {
	Date          time.Time `json:"date"`
	Applications  int       `json:"applications"`
	Hires         int       `json:"hires"`
	AvgTimeToFill float64   `json:"avg_time_to_fill"`
}

// DashboardData is the composed reporting payload
type DashboardData struct {
	Summary     AnalyticsSummary     `json:"summary"`
	Bottlenecks []PipelineBottleneck `json:"bottlenecks"`
	Sources     []SourceAnalytics    `json:"sources"`
	Diversity   DiversityAnalytics   `json:"diversity"`
	Trends      []TrendPoint         `json:"trends"`
	LastUpdated time.Time            `json:"last_updated"`
}

// ReportSection names one section of a generated report
type ReportSection string

const (
	SectionSummary   ReportSection = "summary"
	SectionPipeline  ReportSection = "pipeline"
	SectionSources   ReportSection = "sources"
	SectionDiversity ReportSection = "diversity"
	SectionTrends    ReportSection = "trends"
)

// Report is a generated analytics report handed to the export renderer
type Report struct {
	ID          string                        `json:"id"`
	Format      string                        `json:"format"`
	GeneratedAt time.Time                     `json:"generated_at"`
	Sections    map[ReportSection]interface{} `json:"sections"`
	DownloadRef string                        `json:"download_ref"`
}
