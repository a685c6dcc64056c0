package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Service holds the process-level settings shared by the API and the worker
type Service struct {
	Environment      string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	APIPort          string `envconfig:"SERVICE_API_PORT" default:"8080"`
	WorkerHealthPort string `envconfig:"WORKER_HEALTH_CHECK_PORT" default:"8081"`
	ReportDir        string `envconfig:"SERVICE_REPORT_DIR" default:"/tmp/recruitment-reports"`
}

// ClickHouse holds the connection settings for the applications warehouse
type ClickHouse struct {
	Host               string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port               string `envconfig:"CLICKHOUSE_PORT" required:"true"`
	Database           string `envconfig:"CLICKHOUSE_DB" required:"true"`
	User               string `envconfig:"CLICKHOUSE_USER" default:""`
	Password           string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS             bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns       int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns       int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetimeSec int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// Postgres holds the connection settings for the metrics store
type Postgres struct {
	Host               string `envconfig:"POSTGRES_HOST" required:"true"`
	Port               string `envconfig:"POSTGRES_PORT" default:"5432"`
	User               string `envconfig:"POSTGRES_USER" required:"true"`
	Password           string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database           string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode            string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxOpenConns       int    `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"10"`
	ConnMaxLifetimeSec int    `envconfig:"POSTGRES_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// SQS holds the refresh trigger queue settings
type SQS struct {
	Endpoint             string `envconfig:"SQS_ENDPOINT"`
	QueueURL             string `envconfig:"SQS_QUEUE_URL" required:"true"`
	Region               string `envconfig:"SQS_REGION" required:"true"`
	MaxMessages          int32  `envconfig:"SQS_MAX_MESSAGES" default:"10"`
	WaitTimeSec          int32  `envconfig:"SQS_WAIT_TIME_SEC" default:"20"`
	VisibilityTimeoutSec int32  `envconfig:"SQS_VISIBILITY_TIMEOUT_SEC" default:"120"`
}

// Cache holds the in-memory analytics cache settings
type Cache struct {
	QueryTTLSec        int `envconfig:"CACHE_QUERY_TTL_SEC" default:"300"`
	DashboardTTLSec    int `envconfig:"CACHE_DASHBOARD_TTL_SEC" default:"600"`
	CleanupIntervalSec int `envconfig:"CACHE_CLEANUP_INTERVAL_SEC" default:"60"`
}

// Aggregation holds the scheduled aggregation settings
type Aggregation struct {
	ScheduleHourUTC int `envconfig:"AGGREGATION_SCHEDULE_HOUR_UTC" default:"2"`
	LookbackDays    int `envconfig:"AGGREGATION_LOOKBACK_DAYS" default:"1"`
}

// Config is the full service configuration, loaded from the environment
type Config struct {
	Service     Service
	ClickHouse  ClickHouse
	Postgres    Postgres
	SQS         SQS
	Cache       Cache
	Aggregation Aggregation
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
