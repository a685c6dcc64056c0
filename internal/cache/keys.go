package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

// Key derives a deterministic cache key for an analytics query. The filter
// fields are serialized in a fixed order before hashing, so two queries with
// identical filter values always produce the same key regardless of how they
// were constructed. The company ID is kept in clear text so that
// InvalidatePattern("company:<id>") can drop a tenant's entries.
func Key(prefix string, q domain.AnalyticsQuery) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		q.CompanyID,
		q.JobID,
		q.Source,
		formatDate(q.StartDate),
		formatDate(q.EndDate),
		q.Granularity,
	)

	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%s:company:%s:%s", prefix, q.CompanyID, hex.EncodeToString(hash[:16]))
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
