package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// TriggerMessage asks the worker to re-aggregate one slice of the metrics
// store. JobType is one of "all", "pipeline", "sources", "diversity". An
// empty CompanyID fans out over every known company. DateBucket is the target
// day formatted as 2006-01-02; empty means the current day.
type TriggerMessage struct {
	JobType    string `json:"job_type"`
	CompanyID  string `json:"company_id,omitempty"`
	DateBucket string `json:"date_bucket,omitempty"`
}

// TriggerPublisher defines the interface for publishing refresh triggers to a queue
type TriggerPublisher interface {
	PublishTrigger(ctx context.Context, trigger *TriggerMessage) error
}

// QueueConsumer defines the interface for consuming messages from a queue
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
