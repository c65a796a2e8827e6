// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
)

const defaultQueryTimeout = 30 * time.Second

// ensureContext adds a 30 second deadline when ctx has none.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultQueryTimeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, defaultQueryTimeout)
	}
	return ctx, func() {}
}

// observe records query latency and errors. Use with defer and a named error.
func observe(op, table string, start time.Time, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	metrics.RecordDBQuery(op, table, time.Since(start), e)
}

// Checkpoint forces a WAL checkpoint.
func (db *DB) Checkpoint(ctx context.Context) (err error) {
	defer observe("checkpoint", "", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if _, err = db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	logging.Debug().Str("path", db.cfg.DuckDBPath).Msg("DuckDB checkpoint complete")
	return nil
}

// RecordCounts returns row counts per curated table.
func (db *DB) RecordCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	counts := make(map[string]int64, 4)
	for _, table := range []string{"menus", "ingredients", "users", "interactions"} {
		var n int64
		// Table names come from the fixed list above.
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
