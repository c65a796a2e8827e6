// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/database"
	"github.com/tomtom215/mealreco/internal/dynamostore"
	"github.com/tomtom215/mealreco/internal/enrichment"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/store"
)

// Backends holds the storage and model clients selected by configuration.
type Backends struct {
	// Lake is the raw object store. Writes through it raise no events.
	Lake  objectstore.Store
	Store store.Store

	// Badger and DuckDB are set for their backends; they need periodic
	// maintenance.
	Badger *objectstore.Badger
	DuckDB *database.DB

	// Bedrock is nil unless the enrichment provider is bedrock.
	Bedrock enrichment.BedrockAPI
}

// Open builds every backend named by cfg. AWS credentials are only
// resolved when an AWS backend is selected.
func Open(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{}
	var awsCfg *aws.Config

	awsConfig := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}
	endpoint := func() *string {
		if cfg.AWS.Endpoint == "" {
			return nil
		}
		return aws.String(cfg.AWS.Endpoint)
	}

	switch cfg.Lake.Backend {
	case config.LakeBackendBadger:
		db, err := objectstore.OpenBadger(cfg.Lake.BadgerDir)
		if err != nil {
			return nil, err
		}
		b.Badger, b.Lake = db, db
	case config.LakeBackendS3:
		c, err := awsConfig()
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(c, func(o *s3.Options) {
			if ep := endpoint(); ep != nil {
				o.BaseEndpoint = ep
				o.UsePathStyle = true
			}
		})
		b.Lake = objectstore.NewS3(client, cfg.Lake.Bucket)
	case config.LakeBackendMemory:
		b.Lake = objectstore.NewMemory()
	default:
		return nil, fmt.Errorf("unknown lake backend %q", cfg.Lake.Backend)
	}

	fail := func(err error) (*Backends, error) {
		return nil, errors.Join(err, b.Close())
	}

	switch cfg.Store.Backend {
	case config.StoreBackendDuckDB:
		db, err := database.New(cfg.Store)
		if err != nil {
			return fail(err)
		}
		b.DuckDB, b.Store = db, db
	case config.StoreBackendDynamoDB:
		c, err := awsConfig()
		if err != nil {
			return fail(err)
		}
		client := dynamodb.NewFromConfig(c, func(o *dynamodb.Options) {
			o.BaseEndpoint = endpoint()
		})
		b.Store = dynamostore.New(client, dynamostore.TablesFromConfig(cfg.Store))
	case config.StoreBackendMemory:
		b.Store = store.NewMemory()
	default:
		return fail(fmt.Errorf("unknown store backend %q", cfg.Store.Backend))
	}

	if cfg.Enrichment.Provider == config.ProviderBedrock {
		c, err := awsConfig()
		if err != nil {
			return fail(err)
		}
		b.Bedrock = bedrockruntime.NewFromConfig(c, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = endpoint()
		})
	}

	logging.Info().
		Str("lake", cfg.Lake.Backend).
		Str("store", cfg.Store.Backend).
		Str("enrichment", cfg.Enrichment.Provider).
		Msg("Backends ready")
	return b, nil
}

// Close releases the store and the lake.
func (b *Backends) Close() error {
	var errs []error
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if b.Badger != nil {
		if err := b.Badger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lake: %w", err))
		}
	}
	return errors.Join(errs...)
}
