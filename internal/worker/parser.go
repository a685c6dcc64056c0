package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/queue"
)

// MessageParser defines the interface for parsing raw message bytes into triggers
type MessageParser interface {
	Parse(body []byte) (*queue.TriggerMessage, error)
}

// JSONTriggerParser implements MessageParser for JSON-formatted trigger messages
type JSONTriggerParser struct{}

// NewJSONTriggerParser creates a new JSON trigger parser
func NewJSONTriggerParser() *JSONTriggerParser {
	return &JSONTriggerParser{}
}

// Parse parses a JSON message body into a TriggerMessage
func (p *JSONTriggerParser) Parse(body []byte) (*queue.TriggerMessage, error) {
	var trigger queue.TriggerMessage
	if err := json.Unmarshal(body, &trigger); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	switch trigger.JobType {
	case "all", "pipeline", "sources", "diversity":
	case "":
		return nil, fmt.Errorf("trigger missing job_type")
	default:
		return nil, fmt.Errorf("unknown job_type %q", trigger.JobType)
	}

	if trigger.DateBucket != "" {
		if _, err := time.Parse("2006-01-02", trigger.DateBucket); err != nil {
			return nil, fmt.Errorf("invalid date_bucket %q: %w", trigger.DateBucket, err)
		}
	}

	return &trigger, nil
}
