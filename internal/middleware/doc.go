// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package middleware holds the chi middleware shared by the query API:

  - RequestID: X-Request-ID propagation plus a fresh correlation id that
    follows uploads into the pipeline logs
  - PrometheusMetrics: request totals, latency histogram and in-flight
    gauge, labeled by route pattern

CORS and rate limiting come from go-chi/cors and go-chi/httprate and are
configured in package api.
*/
package middleware
