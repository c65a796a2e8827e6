// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stage Metrics
	StageRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_stage_records_total",
			Help: "Notification records processed per stage and outcome",
		},
		[]string{"stage", "outcome"}, // outcome: written, skipped, failed
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mealreco_stage_duration_seconds",
			Help:    "Duration of one stage invocation in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 180, 600},
		},
		[]string{"stage"},
	)

	LakeObjectsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_lake_objects_written_total",
			Help: "Objects written to the lake, by key prefix",
		},
		[]string{"prefix"},
	)

	DateParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_date_parse_failures_total",
			Help: "Date cells cleared because they could not be parsed",
		},
		[]string{"schema"},
	)

	// Enrichment Metrics
	EnrichmentCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_enrichment_calls_total",
			Help: "Calls to the text and image models",
		},
		[]string{"operation", "result"}, // result: success, failure
	)

	EnrichmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mealreco_enrichment_duration_seconds",
			Help:    "Model call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// Curated Writer Metrics
	BatchChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_batch_chunks_total",
			Help: "Batch write chunks submitted",
		},
		[]string{"entity"},
	)

	BatchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_batch_attempts_total",
			Help: "Batch write attempts, including retries of unprocessed items",
		},
		[]string{"entity"},
	)

	BatchDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_batch_dropped_total",
			Help: "Items dropped after exhausting batch write attempts",
		},
		[]string{"entity"},
	)

	InteractionsUnresolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealreco_interactions_unresolved_total",
			Help: "Interactions dropped because their item id matched no menu",
		},
	)

	IngredientIncrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealreco_ingredient_increments_total",
			Help: "Ingredient counter increments",
		},
	)

	MenusSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealreco_menus_existing_total",
			Help: "Menu creates skipped because the item id already existed",
		},
	)

	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mealreco_store_query_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_store_query_errors_total",
			Help: "Store operation errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mealreco_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mealreco_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mealreco_websocket_connections_active",
			Help: "Current number of stage feed subscribers",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealreco_websocket_messages_sent_total",
			Help: "Stage summaries pushed to subscribers",
		},
	)

	// Query Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_cache_lookups_total",
			Help: "Query cache lookups by result (hit, miss)",
		},
		[]string{"cache", "result"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_cache_invalidations_total",
			Help: "Query cache flushes after curated writes",
		},
		[]string{"cache"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mealreco_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Bus Metrics
	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_nats_messages_published_total",
			Help: "Storage events published",
		},
		[]string{"topic"},
	)

	NATSMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealreco_nats_messages_consumed_total",
			Help: "Storage events consumed by stage handlers",
		},
		[]string{"topic"},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealreco_nats_messages_parse_failed_total",
			Help: "Storage events that were not valid notifications",
		},
	)
)

// RecordStageResult counts one processed notification record.
func RecordStageResult(stage, outcome string) {
	StageRecords.WithLabelValues(stage, outcome).Inc()
}

// RecordStageDuration observes one stage invocation.
func RecordStageDuration(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordLakeWrite counts an object written under prefix.
func RecordLakeWrite(prefix string) {
	LakeObjectsWritten.WithLabelValues(prefix).Inc()
}

// RecordDateParseFailures counts cleared date cells.
func RecordDateParseFailures(schema string, n int) {
	if n > 0 {
		DateParseFailures.WithLabelValues(schema).Add(float64(n))
	}
}

// RecordEnrichmentCall records one model call and its outcome.
func RecordEnrichmentCall(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EnrichmentCalls.WithLabelValues(operation, result).Inc()
	EnrichmentDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBatch records the outcome of one coordinated batch write.
func RecordBatch(entity string, chunks, attempts, dropped int) {
	BatchChunks.WithLabelValues(entity).Add(float64(chunks))
	BatchAttempts.WithLabelValues(entity).Add(float64(attempts))
	if dropped > 0 {
		BatchDropped.WithLabelValues(entity).Add(float64(dropped))
	}
}

// RecordUnresolvedInteractions counts interactions dropped for lack of a menu.
func RecordUnresolvedInteractions(n int) {
	if n > 0 {
		InteractionsUnresolved.Add(float64(n))
	}
}

// RecordIngredientIncrement counts one ingredient counter increment.
func RecordIngredientIncrement() {
	IngredientIncrements.Inc()
}

// RecordMenuExists counts a menu create that hit an existing item id.
func RecordMenuExists() {
	MenusSkipped.Inc()
}

// RecordDBQuery records a store operation metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCircuitBreakerTransition records a breaker state change. States are
// the gobreaker state names.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordNATSPublish records a storage event being published
func RecordNATSPublish(topic string) {
	NATSMessagesPublished.WithLabelValues(topic).Inc()
}

// RecordNATSConsume records a storage event reaching a stage handler
func RecordNATSConsume(topic string) {
	NATSMessagesConsumed.WithLabelValues(topic).Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}

// SetWSConnections records the current number of feed subscribers.
func SetWSConnections(n int) {
	WSConnectionsActive.Set(float64(n))
}

// RecordWSMessageSent counts one message queued for a subscriber.
func RecordWSMessageSent() {
	WSMessagesSent.Inc()
}

// RecordCacheLookup counts one query cache lookup.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordCacheInvalidation counts one query cache flush.
func RecordCacheInvalidation(cache string) {
	CacheInvalidations.WithLabelValues(cache).Inc()
}
