package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"company_id is required"`
}

// RefreshResponse represents an accepted refresh trigger
type RefreshResponse struct {
	Status     string `json:"status" example:"accepted"`
	JobType    string `json:"job_type" example:"all"`
	CompanyID  string `json:"company_id,omitempty" example:"cmp_123"`
	DateBucket string `json:"date_bucket,omitempty" example:"2025-05-10"`
}

// InvalidateCacheResponse reports how many cache entries a pattern removed
type InvalidateCacheResponse struct {
	Removed int `json:"removed" example:"4"`
}

// ClearCacheResponse acknowledges a full cache flush
type ClearCacheResponse struct {
	Status string `json:"status" example:"cleared"`
}
