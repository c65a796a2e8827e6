// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package batch splits bulk writes into store-sized chunks and retries the
// items a store reports as unprocessed.
package batch

import (
	"context"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
)

// Defaults match the DynamoDB batch write limits.
const (
	DefaultChunkSize   = 25
	DefaultMaxAttempts = 3
)

// WriteFunc writes one chunk and returns the items the store did not
// process. A non-nil error means the whole chunk is to be retried.
type WriteFunc[T any] func(ctx context.Context, chunk []T) (unprocessed []T, err error)

// Report counts what one Write did.
type Report struct {
	Chunks   int `json:"chunks"`
	Attempts int `json:"attempts"`
	Written  int `json:"written"`
	Dropped  int `json:"dropped"`
}

// Coordinator drives chunked writes for one entity.
type Coordinator[T any] struct {
	Entity      string
	ChunkSize   int
	MaxAttempts int
}

// New creates a coordinator. Non-positive sizes fall back to the defaults.
func New[T any](entity string, chunkSize, maxAttempts int) *Coordinator[T] {
	if chunkSize <= 0 || chunkSize > DefaultChunkSize {
		chunkSize = DefaultChunkSize
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Coordinator[T]{Entity: entity, ChunkSize: chunkSize, MaxAttempts: maxAttempts}
}

// Write submits items in chunks. Each chunk gets up to MaxAttempts calls;
// only the unprocessed remainder is resubmitted, immediately. Whatever is
// left after the last attempt is logged and dropped. Write never returns an
// error: the Report carries the outcome.
func (c *Coordinator[T]) Write(ctx context.Context, items []T, fn WriteFunc[T]) Report {
	var r Report
	for start := 0; start < len(items); start += c.ChunkSize {
		end := min(start+c.ChunkSize, len(items))
		chunk := items[start:end]
		r.Chunks++

		pending := chunk
		for attempt := 1; attempt <= c.MaxAttempts && len(pending) > 0; attempt++ {
			if ctx.Err() != nil {
				break
			}
			r.Attempts++
			unprocessed, err := fn(ctx, pending)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).
					Str("entity", c.Entity).
					Int("attempt", attempt).
					Int("items", len(pending)).
					Msg("Batch write failed, retrying chunk")
				continue
			}
			r.Written += len(pending) - len(unprocessed)
			pending = unprocessed
		}

		if len(pending) > 0 {
			r.Dropped += len(pending)
			logging.Ctx(ctx).Error().
				Str("entity", c.Entity).
				Int("dropped", len(pending)).
				Int("attempts", c.MaxAttempts).
				Msg("Batch items still unprocessed after final attempt, dropping")
		}
	}

	metrics.RecordBatch(c.Entity, r.Chunks, r.Attempts, r.Dropped)
	return r
}
