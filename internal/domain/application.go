package domain

import "time"

// ApplicationStatus represents the funnel stage an application currently sits in
type ApplicationStatus string

const (
	StatusApplied            ApplicationStatus = "applied"
	StatusScreening          ApplicationStatus = "screening"
	StatusShortlisted        ApplicationStatus = "shortlisted"
	StatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	StatusInterviewCompleted ApplicationStatus = "interview_completed"
	StatusOfferExtended      ApplicationStatus = "offer_extended"
	StatusOfferAccepted      ApplicationStatus = "offer_accepted"
	StatusHired              ApplicationStatus = "hired"
	StatusRejected           ApplicationStatus = "rejected"
)

// AgeBucket represents a closed age range used by the diversity distributions
type AgeBucket string

const (
	AgeUnder25 AgeBucket = "under25"
	Age25To34  AgeBucket = "25-34"
	Age35To44  AgeBucket = "35-44"
	Age45To54  AgeBucket = "45-54"
	AgeOver55  AgeBucket = "over55"
	AgeUnknown AgeBucket = "unknown"
)

// ApplicationRecord is the denormalized read model consumed by the
// aggregation engine: one application joined with the demographic and
// acquisition fields of its candidate. It is produced by the operational
// ATS stores and is read-only to this service.
type ApplicationRecord struct {
	ID              string            `ch:"id"`
	CompanyID       string            `ch:"company_id"`
	JobID           string            `ch:"job_id"`
	CandidateID     string            `ch:"candidate_id"`
	Status          ApplicationStatus `ch:"status"`
	Source          string            `ch:"source"`
	FitScore        float64           `ch:"fit_score"`
	AcquisitionCost float64           `ch:"acquisition_cost"`
	Gender          string            `ch:"gender"`
	Ethnicity       string            `ch:"ethnicity"`
	Age             *int              `ch:"age"`
	Education       string            `ch:"education"`
	AppliedAt       time.Time         `ch:"applied_at"`
	LastUpdated     time.Time         `ch:"last_updated"`
}

// JobPosting identifies one job variant of a company
type JobPosting struct {
	ID        string `ch:"id"`
	CompanyID string `ch:"company_id"`
	Title     string `ch:"title"`
}

// Interviewed reports whether the application progressed at least to a
// scheduled interview.
func (s ApplicationStatus) Interviewed() bool {
	switch s {
	case StatusInterviewScheduled, StatusInterviewCompleted, StatusOfferExtended, StatusHired:
		return true
	}
	return false
}
