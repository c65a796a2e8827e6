// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points CONFIG_PATH at a missing file and unsets every mapped
// variable, so neither a config.yaml in the working directory nor the
// caller's environment leaks into a test.
func isolate(t *testing.T) {
	t.Helper()
	for key := range envMappings {
		name := strings.ToUpper(key)
		t.Setenv(name, "") // restores the original value on cleanup
		if err := os.Unsetenv(name); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	saved := DefaultConfigPaths
	DefaultConfigPaths = nil
	t.Cleanup(func() { DefaultConfigPaths = saved })
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Pipeline.BatchSize != 25 {
		t.Errorf("Pipeline.BatchSize = %d, want 25", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.BatchAttempts != 3 {
		t.Errorf("Pipeline.BatchAttempts = %d, want 3", cfg.Pipeline.BatchAttempts)
	}
	if cfg.Pipeline.EnrichmentConcurrency != 0 {
		t.Errorf("Pipeline.EnrichmentConcurrency = %d, want 0 (no cap)", cfg.Pipeline.EnrichmentConcurrency)
	}
	if cfg.Pipeline.InvocationTimeout != 10*time.Minute {
		t.Errorf("Pipeline.InvocationTimeout = %v, want 10m", cfg.Pipeline.InvocationTimeout)
	}
	if cfg.Store.Backend != StoreBackendDuckDB {
		t.Errorf("Store.Backend = %q, want duckdb", cfg.Store.Backend)
	}
	if cfg.Lake.Backend != LakeBackendBadger {
		t.Errorf("Lake.Backend = %q, want badger", cfg.Lake.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"DUCKDB_PATH", "store.duckdb_path"},
		{"PIPELINE_BATCH_SIZE", "pipeline.batch_size"},
		{"ENRICHMENT_PROVIDER", "enrichment.provider"},
		{"NATS_EMBEDDED", "nats.embedded_server"},
		{"CORS_ORIGINS", "api.cors_origins"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LAKE_BACKEND", "memory")
	t.Setenv("PIPELINE_ENRICHMENT_CONCURRENCY", "8")
	t.Setenv("PIPELINE_INVOCATION_TIMEOUT", "2m")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://meals.example.com")
	t.Setenv("ENRICHMENT_PROVIDER", "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Pipeline.EnrichmentConcurrency != 8 {
		t.Errorf("EnrichmentConcurrency = %d, want 8", cfg.Pipeline.EnrichmentConcurrency)
	}
	if cfg.Pipeline.InvocationTimeout != 2*time.Minute {
		t.Errorf("InvocationTimeout = %v, want 2m", cfg.Pipeline.InvocationTimeout)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[1] != "https://meals.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.API.CORSOrigins)
	}
}

func TestLoadConfigFileAndEnvPrecedence(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  backend: duckdb
  duckdb_path: /tmp/file.duckdb
pipeline:
  batch_size: 10
enrichment:
  provider: none
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("DUCKDB_PATH", "/tmp/env.duckdb")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipeline.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10 from file", cfg.Pipeline.BatchSize)
	}
	if cfg.Store.DuckDBPath != "/tmp/env.duckdb" {
		t.Errorf("DuckDBPath = %q, env should override file", cfg.Store.DuckDBPath)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "batch size above store limit",
			env:     map[string]string{"PIPELINE_BATCH_SIZE": "26"},
			wantErr: "pipeline.batchsize",
		},
		{
			name:    "unknown store backend",
			env:     map[string]string{"STORE_BACKEND": "postgres"},
			wantErr: "store.backend",
		},
		{
			name:    "anthropic without key",
			env:     map[string]string{"ENRICHMENT_PROVIDER": "anthropic"},
			wantErr: "ANTHROPIC_API_KEY",
		},
		{
			name:    "external nats without url",
			env:     map[string]string{"NATS_EMBEDDED": "false", "NATS_URL": ""},
			wantErr: "NATS_URL",
		},
		{
			name:    "page size inversion",
			env:     map[string]string{"API_DEFAULT_PAGE_SIZE": "500", "API_MAX_PAGE_SIZE": "100"},
			wantErr: "API_DEFAULT_PAGE_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadIgnoresCallerEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-shell")
	t.Setenv("STORE_BACKEND", "dynamodb")
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Enrichment.AnthropicAPIKey != "" || cfg.Store.Backend != defaultConfig().Store.Backend {
		t.Errorf("caller environment leaked: key %q, store %q", cfg.Enrichment.AnthropicAPIKey, cfg.Store.Backend)
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 3860}
	if got := s.Addr(); got != "127.0.0.1:3860" {
		t.Errorf("Addr() = %q", got)
	}
}
