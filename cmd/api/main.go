package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/cache"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/config"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/handler"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/logger"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/query"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/queue/sqs"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/report"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository/clickhouse"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/repository/postgres"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/service"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/telemetry"
)

func main() {
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

	log.Info("Starting analytics API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Initialize SQS client for refresh triggers
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize ClickHouse client for the applications warehouse
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func(chClient *clickhouse.Client) {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}(chClient)

	// Initialize Postgres client for the metrics store
	pgClient, err := postgres.NewClient(ctx, &cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer pgClient.Close()

	reader := clickhouse.NewReadModel(chClient, log)
	store := postgres.NewStore(pgClient, log)

	// Initialize cache and telemetry
	metrics := telemetry.New()
	analyticsCache := cache.New(log, cache.WithMetrics(metrics))

	// Periodic sweep of expired cache entries
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go func() {
		interval := time.Duration(cfg.Cache.CleanupIntervalSec) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if removed := analyticsCache.Cleanup(); removed > 0 {
					log.Debug("Cache cleanup swept entries", zap.Int("removed", removed))
				}
			}
		}
	}()

	// Initialize query engine, orchestrator and service
	queries := query.NewEngine(store, reader, log)
	renderer := report.NewCSVRenderer(cfg.Service.ReportDir)
	orchestrator := report.NewOrchestrator(queries, analyticsCache, renderer, log)
	analyticsService := service.NewAnalyticsService(
		queries,
		orchestrator,
		analyticsCache,
		sqsClient,
		time.Duration(cfg.Cache.QueryTTLSec)*time.Second,
		log,
	)

	// Initialize handler
	h := handler.NewHandler(analyticsService, metrics, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API server gracefully")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server cleanly", zap.Error(err))
	}
}
