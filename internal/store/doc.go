// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package store defines the curated record store and its in-memory backend.

The Writer half is what the curated writer needs: atomic ingredient
counters, create-once menus, paged menu scans and batch upserts that report
unprocessed items. The Reader half backs the query API.

Backends:

  - database.DB: DuckDB, the default single-node store
  - dynamostore.Store: DynamoDB tables
  - Memory: mutex-guarded maps for tests and local runs

The storetest subpackage holds the behavior every backend must share.
*/
package store
