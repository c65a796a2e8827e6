// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package database is the DuckDB backend of the curated record store.
//
// # Overview
//
// DB implements store.Store on a single DuckDB file. It is the default
// backend: one process owns the file, and the curated writer and the query
// API share the connection pool.
//
// # Files
//
//   - database.go: connection lifecycle and pool sizing
//   - database_schema.go: curated tables and indexes
//   - crud_menus.go: menus and ingredient counters
//   - crud_users.go: user upserts, paging and liked-by lookups
//   - crud_interactions.go: interaction upserts, history and popularity
//   - database_utils.go: context deadlines, checkpoints, query metrics
//
// # Write Semantics
//
// Ingredient increments use INSERT ... ON CONFLICT DO UPDATE, so concurrent
// increments of the same name never lose a count. Menus use ON CONFLICT DO
// NOTHING and report store.ErrConflict when no row was inserted. User and
// interaction batches are written in one transaction with INSERT OR
// REPLACE, so a batch never reports unprocessed items; it either commits
// or fails as a whole and the batch coordinator retries it.
//
// # Maintenance
//
// Checkpoint flushes the WAL into the database file. The supervisor runs it
// on an interval.
package database
