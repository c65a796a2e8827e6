// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package dynamostore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/metrics"
	"github.com/tomtom215/mealreco/internal/store"
)

// API is the subset of the DynamoDB client the store calls.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Tables names the four curated tables and the user index on interactions.
type Tables struct {
	Menus            string
	Ingredients      string
	Users            string
	Interactions     string
	InteractionsUser string
}

// TablesFromConfig reads table names from the store configuration.
func TablesFromConfig(cfg config.StoreConfig) Tables {
	return Tables{
		Menus:            cfg.MenusTable,
		Ingredients:      cfg.IngredientsTable,
		Users:            cfg.UsersTable,
		Interactions:     cfg.InteractionsTable,
		InteractionsUser: cfg.InteractionsUserIndex,
	}
}

// batchGetLimit is the BatchGetItem key limit per request.
const batchGetLimit = 100

// maxBatchGetRounds bounds retries of UnprocessedKeys in reads.
const maxBatchGetRounds = 5

var _ store.Store = (*Store)(nil)

// Store implements store.Store on DynamoDB.
type Store struct {
	client API
	tables Tables
}

// New creates a store over the given client.
func New(client API, tables Tables) *Store {
	return &Store{client: client, tables: tables}
}

// Ping implements store.Store by describing the menus table.
func (s *Store) Ping(ctx context.Context) (err error) {
	defer observe("describe", s.tables.Menus, time.Now(), &err)
	if _, err = s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tables.Menus)}); err != nil {
		return fmt.Errorf("describe table %s: %w", s.tables.Menus, err)
	}
	return nil
}

// Close implements store.Store. The SDK client holds no resources.
func (s *Store) Close() error { return nil }

func observe(op, table string, start time.Time, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	metrics.RecordDBQuery(op, table, time.Since(start), e)
}
