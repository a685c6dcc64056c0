// Package worker drives the background aggregation process: an SQS trigger
// pipeline (receive, parse, run) plus a daily scheduler that refreshes every
// company without an external trigger.
package worker

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/config"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/queue"
)

// Worker orchestrates a pipeline of stages to process refresh triggers
type Worker struct {
	receiver  *Receiver
	parser    *ParserStage
	runner    *Runner
	scheduler *Scheduler
}

// New creates a new worker with a pipeline architecture
func New(cfg *config.Config, queueConsumer queue.QueueConsumer, aggregator Aggregator, log *zap.Logger) *Worker {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     cfg.SQS.MaxMessages,
		WaitTimeSeconds: cfg.SQS.WaitTimeSec,
		BufferSize:      100,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONTriggerParser(), log)
	runner := NewRunner(aggregator, log)
	scheduler := NewScheduler(aggregator, SchedulerConfig{
		HourUTC:      cfg.Aggregation.ScheduleHourUTC,
		LookbackDays: cfg.Aggregation.LookbackDays,
	}, log)

	return &Worker{
		receiver:  receiver,
		parser:    parser,
		runner:    runner,
		scheduler: scheduler,
	}
}

// Start begins the worker pipeline and the daily scheduler
func (w *Worker) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup

	wg.Add(4)

	// Stage 1: Receive messages from SQS
	go func() {
		defer wg.Done()
		w.receiver.Start(ctx, messageChan)
	}()

	// Stage 2: Parse messages into envelopes
	go func() {
		defer wg.Done()
		w.parser.Start(ctx, messageChan, envelopeChan)
	}()

	// Stage 3: Run aggregation jobs
	go func() {
		defer wg.Done()
		w.runner.Start(ctx, envelopeChan)
	}()

	// Daily full refresh, independent of the trigger queue
	go func() {
		defer wg.Done()
		w.scheduler.Start(ctx)
	}()

	wg.Wait()
	return nil
}
