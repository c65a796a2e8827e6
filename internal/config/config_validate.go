// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateTags(); err != nil {
		return err
	}
	if err := c.validateLake(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateAPI()
}

// validateTags runs the struct tag rules and reports the first failure by
// its koanf path so operators can find the setting.
func (c *Config) validateTags() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return fmt.Errorf("%s: value %v fails %q rule", strings.ToLower(fe.Namespace()), fe.Value(), fe.Tag()+paramSuffix(fe.Param()))
}

func paramSuffix(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}

func (c *Config) validateLake() error {
	switch c.Lake.Backend {
	case LakeBackendBadger:
		if c.Lake.BadgerDir == "" {
			return fmt.Errorf("LAKE_BADGER_DIR is required when LAKE_BACKEND=badger")
		}
	case LakeBackendS3:
		if c.Lake.Bucket == "" {
			return fmt.Errorf("LAKE_BUCKET is required when LAKE_BACKEND=s3")
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreBackendDuckDB:
		if c.Store.DuckDBPath == "" {
			return fmt.Errorf("DUCKDB_PATH is required when STORE_BACKEND=duckdb")
		}
	case StoreBackendDynamoDB:
		for env, name := range map[string]string{
			"DYNAMODB_MENUS_TABLE":        c.Store.MenusTable,
			"DYNAMODB_INGREDIENTS_TABLE":  c.Store.IngredientsTable,
			"DYNAMODB_USERS_TABLE":        c.Store.UsersTable,
			"DYNAMODB_INTERACTIONS_TABLE": c.Store.InteractionsTable,
		} {
			if name == "" {
				return fmt.Errorf("%s is required when STORE_BACKEND=dynamodb", env)
			}
		}
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	switch c.Enrichment.Provider {
	case ProviderAnthropic:
		if c.Enrichment.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when ENRICHMENT_PROVIDER=anthropic")
		}
		if !strings.HasPrefix(c.Enrichment.AnthropicURL, "http://") && !strings.HasPrefix(c.Enrichment.AnthropicURL, "https://") {
			return fmt.Errorf("ANTHROPIC_BASE_URL must be an http(s) URL, got %q", c.Enrichment.AnthropicURL)
		}
	case ProviderBedrock:
		if c.Enrichment.TextModelID == "" {
			return fmt.Errorf("BEDROCK_TEXT_MODEL_ID is required when ENRICHMENT_PROVIDER=bedrock")
		}
	}
	if c.Enrichment.Timeout <= 0 {
		return fmt.Errorf("ENRICHMENT_TIMEOUT must be positive, got %v", c.Enrichment.Timeout)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("NATS_URL is required when NATS_EMBEDDED=false")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME is required when NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE (%d) must not exceed API_MAX_PAGE_SIZE (%d)",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}
	if !c.API.RateLimitDisabled && c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT=true")
	}
	return nil
}
