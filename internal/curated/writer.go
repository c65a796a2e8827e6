// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package curated

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/mealreco/internal/batch"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

// Options tunes the writer. Zero values take the batch defaults.
type Options struct {
	BatchSize     int
	BatchAttempts int
	ScanPageSize  int
}

// Writer persists curated rows into the store.
type Writer struct {
	store        store.Writer
	users        *batch.Coordinator[models.UserRecord]
	interactions *batch.Coordinator[models.InteractionRecord]
	scanPageSize int
}

// New creates a writer over s.
func New(s store.Writer, opts Options) *Writer {
	return &Writer{
		store:        s,
		users:        batch.New[models.UserRecord]("users", opts.BatchSize, opts.BatchAttempts),
		interactions: batch.New[models.InteractionRecord]("interactions", opts.BatchSize, opts.BatchAttempts),
		scanPageSize: opts.ScanPageSize,
	}
}

// PersistMenus counts each row's ingredient tokens and then creates the
// menu if its item id is new. Tokens are counted even for menus that
// already exist, so re-importing a file counts its ingredients again.
func (w *Writer) PersistMenus(ctx context.Context, rows []models.MenuRow) (models.WriteReport, error) {
	var report models.WriteReport
	log := logging.Ctx(ctx)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		for _, token := range row.Tokens() {
			if err := w.store.IncrementIngredient(ctx, token); err != nil {
				log.Warn().Err(err).Str("ingredient", token).Str("item_id", row.ItemID).
					Msg("Failed to increment ingredient")
				continue
			}
			metrics.RecordIngredientIncrement()
		}

		err := w.store.CreateMenuIfAbsent(ctx, row.Record())
		switch {
		case err == nil:
			report.Written++
		case errors.Is(err, store.ErrConflict):
			report.Skipped++
			metrics.RecordMenuExists()
			log.Info().Str("item_id", row.ItemID).Msg("Menu already exists, skipping")
		default:
			report.Failed++
			log.Error().Err(err).Str("item_id", row.ItemID).Msg("Failed to create menu")
		}
	}
	return report, nil
}

// PersistUsers deduplicates rows by user id, keeping the last occurrence in
// the position of the first, and writes them in batches.
func (w *Writer) PersistUsers(ctx context.Context, rows []models.UserRow) (models.WriteReport, error) {
	log := logging.Ctx(ctx)

	order := make([]string, 0, len(rows))
	latest := make(map[string]models.UserRow, len(rows))
	for _, row := range rows {
		if row.UserID == "" {
			continue
		}
		if _, seen := latest[row.UserID]; !seen {
			order = append(order, row.UserID)
		}
		latest[row.UserID] = row
	}

	records := make([]models.UserRecord, 0, len(order))
	for _, id := range order {
		row := latest[id]
		rec := models.UserRecord{
			UserID:        row.UserID,
			ShippingCity:  row.ShippingCity,
			ShippingState: row.ShippingState,
			Locale:        row.Locale,
		}
		if ts, ok := parseUnix(row.CreatedAt); ok {
			rec.CreatedAt = &ts
		} else {
			log.Warn().Str("user_id", id).Str("created_at", row.CreatedAt).
				Msg("User created_at is not numeric, storing without it")
		}
		records = append(records, rec)
	}
	log.Info().Int("rows", len(rows)).Int("unique", len(records)).Msg("Persisting users")

	r := w.users.Write(ctx, records, w.store.BatchPutUsers)
	return models.WriteReport{Written: r.Written, Dropped: r.Dropped}, ctx.Err()
}

// PersistInteractions resolves each row's item id to its canonical menu,
// drops rows that resolve to nothing, keeps the newest row per (user, item)
// pair and writes the result in batches. The reconciliation index is built
// from a fresh menu scan on every call.
func (w *Writer) PersistInteractions(ctx context.Context, rows []models.InteractionRow) (models.WriteReport, error) {
	var report models.WriteReport
	log := logging.Ctx(ctx)

	idx, err := BuildIndex(ctx, w.store, w.scanPageSize)
	if err != nil {
		report.Failed = len(rows)
		return report, err
	}

	var order []string
	newest := make(map[string]models.InteractionRecord, len(rows))
	for _, row := range rows {
		itemID, ok := idx.Resolve(row.SourceItemID)
		if !ok {
			report.Unresolved++
			log.Debug().Str("item_id", row.SourceItemID).Str("user_id", row.UserID).
				Msg("Interaction item not found in menus, dropping")
			continue
		}
		rec := models.InteractionRecord{
			ItemID:     itemID,
			UserID:     row.UserID,
			EventType:  row.EventType,
			EventValue: row.EventValue,
			CreatedAt:  row.CreatedAt,
			Liked:      row.Liked,
		}
		prev, seen := newest[rec.Key()]
		if !seen {
			order = append(order, rec.Key())
		}
		if !seen || rec.CreatedAt > prev.CreatedAt {
			newest[rec.Key()] = rec
		}
	}
	if report.Unresolved > 0 {
		metrics.RecordUnresolvedInteractions(report.Unresolved)
		log.Warn().Int("unresolved", report.Unresolved).Msg("Dropped interactions with unknown items")
	}

	records := make([]models.InteractionRecord, 0, len(order))
	for _, k := range order {
		records = append(records, newest[k])
	}
	log.Info().Int("rows", len(rows)).Int("unique", len(records)).Int("menus_indexed", len(idx)).
		Msg("Persisting interactions")

	r := w.interactions.Write(ctx, records, w.store.BatchPutInteractions)
	report.Written = r.Written
	report.Dropped = r.Dropped
	return report, ctx.Err()
}

// parseUnix reads a unix-seconds value. Fractional values are truncated.
func parseUnix(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
