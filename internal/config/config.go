// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	AWS        AWSConfig        `koanf:"aws"`
	Lake       LakeConfig       `koanf:"lake"`
	Store      StoreConfig      `koanf:"store"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	NATS       NATSConfig       `koanf:"nats"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	API        APIConfig        `koanf:"api"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: listen address (default: 0.0.0.0)
//   - HTTP_PORT: listen port (default: 3860)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig mirrors logging.Config.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller information (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// AWSConfig is shared by every AWS-backed component (S3 lake, DynamoDB store, Bedrock).
//
// Environment Variables:
//   - AWS_REGION: region for all AWS clients (default: us-east-1)
//   - AWS_ENDPOINT_URL: optional endpoint override, e.g. a local emulator
type AWSConfig struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// Lake backends.
const (
	LakeBackendBadger = "badger"
	LakeBackendS3     = "s3"
	LakeBackendMemory = "memory"
)

// LakeConfig selects where lake objects (raw, formated, curated files) live.
//
// Environment Variables:
//   - LAKE_BACKEND: badger, s3, memory (default: badger)
//   - LAKE_BUCKET: bucket name carried in storage events (default: mealreco)
//   - LAKE_BADGER_DIR: Badger directory (default: /data/lake)
type LakeConfig struct {
	Backend   string `koanf:"backend" validate:"oneof=badger s3 memory"`
	Bucket    string `koanf:"bucket"`
	BadgerDir string `koanf:"badger_dir"`
}

// Store backends.
const (
	StoreBackendDuckDB   = "duckdb"
	StoreBackendDynamoDB = "dynamodb"
	StoreBackendMemory   = "memory"
)

// StoreConfig selects the curated record store.
//
// Environment Variables:
//   - STORE_BACKEND: duckdb, dynamodb, memory (default: duckdb)
//   - DUCKDB_PATH: database file (default: /data/mealreco.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - DUCKDB_THREADS: worker threads, 0 for NumCPU (default: 0)
//   - DYNAMODB_MENUS_TABLE, DYNAMODB_INGREDIENTS_TABLE,
//     DYNAMODB_USERS_TABLE, DYNAMODB_INTERACTIONS_TABLE: table names
//   - DYNAMODB_INTERACTIONS_USER_INDEX: GSI on user_id (default: user_id_index)
type StoreConfig struct {
	Backend         string `koanf:"backend" validate:"oneof=duckdb dynamodb memory"`
	DuckDBPath      string `koanf:"duckdb_path"`
	DuckDBMaxMemory string `koanf:"duckdb_max_memory"`
	DuckDBThreads   int    `koanf:"duckdb_threads" validate:"min=0"`

	MenusTable            string `koanf:"menus_table"`
	IngredientsTable      string `koanf:"ingredients_table"`
	UsersTable            string `koanf:"users_table"`
	InteractionsTable     string `koanf:"interactions_table"`
	InteractionsUserIndex string `koanf:"interactions_user_index"`
}

// Enrichment providers.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// EnrichmentConfig configures the text and image models used by the formatted
// stage and the interactive menu endpoints.
//
// Environment Variables:
//   - ENRICHMENT_PROVIDER: bedrock, anthropic, none (default: bedrock)
//   - BEDROCK_TEXT_MODEL_ID (default: anthropic.claude-3-haiku-20240307-v1:0)
//   - BEDROCK_IMAGE_MODEL_ID (default: amazon.titan-image-generator-v2:0)
//   - ANTHROPIC_BASE_URL (default: https://api.anthropic.com/v1)
//   - ANTHROPIC_API_KEY: required when ENRICHMENT_PROVIDER=anthropic
//   - ANTHROPIC_MODEL (default: claude-3-haiku-20240307)
//   - ENRICHMENT_RATE_LIMIT: requests per second, 0 for unlimited (default: 0)
//   - ENRICHMENT_TIMEOUT: per-call timeout (default: 60s)
//   - ENRICHMENT_BREAKER_FAILURES: consecutive failures before the breaker opens (default: 5)
//   - ENRICHMENT_BREAKER_TIMEOUT: open-state duration (default: 30s)
type EnrichmentConfig struct {
	Provider        string        `koanf:"provider" validate:"oneof=bedrock anthropic none"`
	TextModelID     string        `koanf:"text_model_id"`
	ImageModelID    string        `koanf:"image_model_id"`
	AnthropicURL    string        `koanf:"anthropic_url"`
	AnthropicAPIKey string        `koanf:"anthropic_api_key"`
	AnthropicModel  string        `koanf:"anthropic_model"`
	RateLimit       float64       `koanf:"rate_limit" validate:"min=0"`
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// NATSConfig configures the storage event bus.
//
// Environment Variables:
//   - NATS_ENABLED: run stage workers off the bus (default: true)
//   - NATS_URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: start an in-process server (default: true)
//   - NATS_STORE_DIR: JetStream directory (default: /data/nats/jetstream)
//   - NATS_STREAM_NAME (default: LAKE_EVENTS)
//   - NATS_RETENTION: stream max age (default: 168h)
//   - NATS_SUBSCRIBERS: subscribers per stage (default: 1)
//   - NATS_ACK_WAIT: redelivery timeout (default: 15m)
//   - NATS_MAX_DELIVER (default: 3)
//   - NATS_ROUTER_RETRY_COUNT (default: 0)
//   - NATS_POISON_TOPIC (default: lake.poison)
type NATSConfig struct {
	Enabled             bool          `koanf:"enabled"`
	URL                 string        `koanf:"url"`
	EmbeddedServer      bool          `koanf:"embedded_server"`
	StoreDir            string        `koanf:"store_dir"`
	StreamName          string        `koanf:"stream_name"`
	Retention           time.Duration `koanf:"retention"`
	MaxStore            int64         `koanf:"max_store"`
	SubscribersCount    int           `koanf:"subscribers_count" validate:"min=0"`
	DurablePrefix       string        `koanf:"durable_prefix"`
	AckWait             time.Duration `koanf:"ack_wait"`
	MaxDeliver          int           `koanf:"max_deliver"`
	RouterRetryCount    int           `koanf:"router_retry_count" validate:"min=0"`
	RouterRetryInterval time.Duration `koanf:"router_retry_interval"`
	PoisonTopic         string        `koanf:"poison_topic"`
	CloseTimeout        time.Duration `koanf:"close_timeout"`
}

// PipelineConfig tunes the stage orchestrators and the curated writer.
//
// Environment Variables:
//   - PIPELINE_INVOCATION_TIMEOUT: wall clock per notification (default: 10m)
//   - PIPELINE_ENRICHMENT_CONCURRENCY: max concurrent classifications, 0 for no cap (default: 0)
//   - PIPELINE_BATCH_SIZE: store batch chunk size (default: 25)
//   - PIPELINE_BATCH_ATTEMPTS: attempts per chunk (default: 3)
//   - PIPELINE_SCAN_PAGE_SIZE: menu scan page size (default: 500)
type PipelineConfig struct {
	InvocationTimeout     time.Duration `koanf:"invocation_timeout"`
	EnrichmentConcurrency int           `koanf:"enrichment_concurrency" validate:"min=0"`
	BatchSize             int           `koanf:"batch_size" validate:"min=1,max=25"`
	BatchAttempts         int           `koanf:"batch_attempts" validate:"min=1"`
	ScanPageSize          int           `koanf:"scan_page_size" validate:"min=1"`
}

// APIConfig holds query API settings.
//
// Environment Variables:
//   - CORS_ORIGINS: comma-separated allowed origins
//   - RATE_LIMIT_REQUESTS: requests per window (default: 100)
//   - RATE_LIMIT_WINDOW (default: 1m)
//   - DISABLE_RATE_LIMIT (default: false)
//   - API_DEFAULT_PAGE_SIZE (default: 50)
//   - API_MAX_PAGE_SIZE (default: 1000)
//   - API_MAX_UPLOAD_BYTES (default: 64MiB)
//   - API_CACHE_TTL (default: 5m, 0 disables the query cache)
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	DefaultPageSize   int           `koanf:"default_page_size" validate:"min=1"`
	MaxPageSize       int           `koanf:"max_page_size" validate:"min=1"`
	MaxUploadBytes    int64         `koanf:"max_upload_bytes" validate:"min=1"`
	CacheTTL          time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

// SupervisorConfig mirrors supervisor.TreeConfig.
//
// Environment Variables:
//   - SUPERVISOR_FAILURE_THRESHOLD (default: 5)
//   - SUPERVISOR_FAILURE_BACKOFF (default: 15s)
//   - SUPERVISOR_SHUTDOWN_TIMEOUT (default: 10s)
//   - SUPERVISOR_MAINTENANCE_INTERVAL: badger GC and DuckDB checkpoint period (default: 10m)
type SupervisorConfig struct {
	FailureThreshold    float64       `koanf:"failure_threshold"`
	FailureBackoff      time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout     time.Duration `koanf:"shutdown_timeout"`
	MaintenanceInterval time.Duration `koanf:"maintenance_interval"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
