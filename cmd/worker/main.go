package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/aggregate"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/config"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/logger"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/queue/sqs"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository/clickhouse"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository/postgres"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/telemetry"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting aggregation worker",
		zap.String("environment", cfg.Service.Environment))

	ctx := context.Background()

	// Initialize ClickHouse client for the applications warehouse
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	// Initialize Postgres client for the metrics store
	pgClient, err := postgres.NewClient(ctx, &cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer pgClient.Close()

	reader := clickhouse.NewReadModel(chClient, log)
	store := postgres.NewStore(pgClient, log)

	// Initialize schema (create tables if not exist)
	if err := store.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize metrics schema", zap.Error(err))
	}
	log.Info("Metrics store schema initialized")

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize aggregation engine and worker
	metrics := telemetry.New()
	engine := aggregate.NewEngine(reader, store, metrics, log)
	w := worker.New(cfg, sqsClient, engine, log)

	// Start health check endpoint
	go func() {
		http.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
			if err := pgClient.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				rw.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			rw.WriteHeader(http.StatusOK)
		})

		addr := ":" + cfg.Service.WorkerHealthPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	// Start worker
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("Worker starting")

	go func() {
		if err := w.Start(workerCtx); err != nil {
			log.Fatal("Worker error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker gracefully")
	cancel()
}
