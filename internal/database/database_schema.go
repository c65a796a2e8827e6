// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
database_schema.go - Curated Schema

Tables:
  - menus: one row per canonical item id, written once
  - ingredients: token counters, incremented in place
  - users: profiles keyed by user_id, overwritten on re-import
  - interactions: one row per (item_id, user_id), latest write wins

other_ids is stored pipe-joined, the same encoding the DynamoDB backend uses.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS menus (
			item_id TEXT PRIMARY KEY,
			other_ids TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			name TEXT NOT NULL,
			genres TEXT,
			genre_l2 TEXT,
			genre_l3 TEXT,
			product_description TEXT,
			content_classification TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			name TEXT PRIMARY KEY,
			"count" BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			shipping_city TEXT,
			shipping_state TEXT,
			locale TEXT,
			created_at BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS interactions (
			item_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			event_type TEXT,
			event_value DOUBLE,
			created_at BIGINT NOT NULL,
			liked INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (item_id, user_id)
		)`,
		// INSERT OR REPLACE leaves columns of a secondary index untouched, so
		// interactions carry none: a re-import must move created_at.
		`DROP INDEX IF EXISTS idx_interactions_user`,
	}
}
