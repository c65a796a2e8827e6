// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package cache provides a thread-safe in-memory TTL cache for query API
results.

The record store answers ranking queries (popular items, ingredient counts)
by scanning interactions, which is expensive on DynamoDB. The API caches
those answers and flushes the cache whenever the curated stage writes
records, so results are at most one TTL stale between uploads and fresh
right after one.

# Features

  - Generic values (Cache[V])
  - TTL expiry checked on read
  - Optional entry bound; the entry closest to expiry is evicted first
  - GetOrLoad collapses concurrent loads of one key (x/sync/singleflight)
  - Clear invalidates in-flight loads so they cannot store stale data

# Metrics

  - mealreco_cache_lookups_total{cache, result}
  - mealreco_cache_invalidations_total{cache}
*/
package cache
