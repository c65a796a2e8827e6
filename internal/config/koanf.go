// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mealreco/config.yaml",
	"/etc/mealreco/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3860,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Lake: LakeConfig{
			Backend:   LakeBackendBadger,
			Bucket:    "mealreco",
			BadgerDir: "/data/lake",
		},
		Store: StoreConfig{
			Backend:               StoreBackendDuckDB,
			DuckDBPath:            "/data/mealreco.duckdb",
			DuckDBMaxMemory:       "1GB",
			MenusTable:            "menus",
			IngredientsTable:      "ingredients",
			UsersTable:            "users",
			InteractionsTable:     "interactions",
			InteractionsUserIndex: "user_id_index",
		},
		Enrichment: EnrichmentConfig{
			Provider:        ProviderBedrock,
			TextModelID:     "anthropic.claude-3-haiku-20240307-v1:0",
			ImageModelID:    "amazon.titan-image-generator-v2:0",
			AnthropicURL:    "https://api.anthropic.com/v1",
			AnthropicModel:  "claude-3-haiku-20240307",
			Timeout:         60 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:             true,
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			StreamName:          "LAKE_EVENTS",
			Retention:           7 * 24 * time.Hour,
			MaxStore:            1 << 30,
			SubscribersCount:    1,
			DurablePrefix:       "lake",
			AckWait:             15 * time.Minute,
			MaxDeliver:          3,
			RouterRetryInterval: 500 * time.Millisecond,
			PoisonTopic:         "lake.poison",
			CloseTimeout:        30 * time.Second,
		},
		Pipeline: PipelineConfig{
			InvocationTimeout: 10 * time.Minute,
			BatchSize:         25,
			BatchAttempts:     3,
			ScanPageSize:      500,
		},
		API: APIConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			DefaultPageSize:   50,
			MaxPageSize:       1000,
			MaxUploadBytes:    64 << 20,
			CacheTTL:          5 * time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold:    5,
			FailureBackoff:      15 * time.Second,
			ShutdownTimeout:     10 * time.Second,
			MaintenanceInterval: 10 * time.Minute,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of priority, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"aws_region":       "aws.region",
	"aws_endpoint_url": "aws.endpoint",

	"lake_backend":    "lake.backend",
	"lake_bucket":     "lake.bucket",
	"lake_badger_dir": "lake.badger_dir",

	"store_backend":                    "store.backend",
	"duckdb_path":                      "store.duckdb_path",
	"duckdb_max_memory":                "store.duckdb_max_memory",
	"duckdb_threads":                   "store.duckdb_threads",
	"dynamodb_menus_table":             "store.menus_table",
	"dynamodb_ingredients_table":       "store.ingredients_table",
	"dynamodb_users_table":             "store.users_table",
	"dynamodb_interactions_table":      "store.interactions_table",
	"dynamodb_interactions_user_index": "store.interactions_user_index",

	"enrichment_provider":         "enrichment.provider",
	"bedrock_text_model_id":       "enrichment.text_model_id",
	"bedrock_image_model_id":      "enrichment.image_model_id",
	"anthropic_base_url":          "enrichment.anthropic_url",
	"anthropic_api_key":           "enrichment.anthropic_api_key",
	"anthropic_model":             "enrichment.anthropic_model",
	"enrichment_rate_limit":       "enrichment.rate_limit",
	"enrichment_timeout":          "enrichment.timeout",
	"enrichment_breaker_failures": "enrichment.breaker_failures",
	"enrichment_breaker_timeout":  "enrichment.breaker_timeout",

	"nats_enabled":               "nats.enabled",
	"nats_url":                   "nats.url",
	"nats_embedded":              "nats.embedded_server",
	"nats_store_dir":             "nats.store_dir",
	"nats_stream_name":           "nats.stream_name",
	"nats_retention":             "nats.retention",
	"nats_max_store":             "nats.max_store",
	"nats_subscribers":           "nats.subscribers_count",
	"nats_durable_prefix":        "nats.durable_prefix",
	"nats_ack_wait":              "nats.ack_wait",
	"nats_max_deliver":           "nats.max_deliver",
	"nats_router_retry_count":    "nats.router_retry_count",
	"nats_router_retry_interval": "nats.router_retry_interval",
	"nats_poison_topic":          "nats.poison_topic",
	"nats_close_timeout":         "nats.close_timeout",

	"pipeline_invocation_timeout":     "pipeline.invocation_timeout",
	"pipeline_enrichment_concurrency": "pipeline.enrichment_concurrency",
	"pipeline_batch_size":             "pipeline.batch_size",
	"pipeline_batch_attempts":         "pipeline.batch_attempts",
	"pipeline_scan_page_size":         "pipeline.scan_page_size",

	"cors_origins":          "api.cors_origins",
	"rate_limit_requests":   "api.rate_limit_requests",
	"rate_limit_window":     "api.rate_limit_window",
	"disable_rate_limit":    "api.rate_limit_disabled",
	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",
	"api_max_upload_bytes":  "api.max_upload_bytes",
	"api_cache_ttl":         "api.cache_ttl",

	"supervisor_failure_threshold":    "supervisor.failure_threshold",
	"supervisor_failure_backoff":      "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":     "supervisor.shutdown_timeout",
	"supervisor_maintenance_interval": "supervisor.maintenance_interval",
}

// envTransformFunc maps known environment variable names to koanf paths.
// Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
