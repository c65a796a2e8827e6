// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package metrics provides Prometheus instrumentation for the lake pipeline.

All metrics are registered on the default registry through promauto and are
served by the /metrics endpoint of the query API.

Metric Groups:

  - Stage: records per stage and outcome, invocation duration, lake writes,
    cleared date cells
  - Enrichment: model calls and latency per operation
  - Curated writer: batch chunks, attempts and drops per entity, unresolved
    interactions, ingredient increments, existing menus
  - Store: operation latency and errors per table
  - API and WebSocket: request counts, latency, active requests, feed
    subscribers
  - Circuit breakers and event bus: breaker transitions, published,
    consumed and unparseable storage events

Record* helpers wrap the label handling so call sites stay one line:

	start := time.Now()
	err := store.CreateMenuIfAbsent(ctx, rec)
	metrics.RecordDBQuery("create_menu", "menus", time.Since(start), err)
*/
package metrics
