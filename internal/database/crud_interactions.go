// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

const interactionColumns = `item_id, user_id, event_type, event_value, created_at, liked`

// BatchPutInteractions implements store.Writer.
func (db *DB) BatchPutInteractions(ctx context.Context, recs []models.InteractionRecord) (_ []models.InteractionRecord, err error) {
	if len(recs) == 0 {
		return nil, nil
	}
	defer observe("batch_put", "interactions", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	err = db.inTx(ctx, `INSERT OR REPLACE INTO interactions (`+interactionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		len(recs), func(i int) []any {
			r := recs[i]
			return []any{r.ItemID, r.UserID, r.EventType, r.EventValue, r.CreatedAt, r.Liked}
		})
	if err != nil {
		return nil, fmt.Errorf("failed to put interactions: %w", err)
	}
	return nil, nil
}

// InteractionsByUser implements store.Reader.
func (db *DB) InteractionsByUser(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error) {
	return db.interactionsWhere(ctx, "user_id", userID, limit)
}

// InteractionsByItem implements store.Reader.
func (db *DB) InteractionsByItem(ctx context.Context, itemID string, limit int) ([]models.InteractionRecord, error) {
	return db.interactionsWhere(ctx, "item_id", itemID, limit)
}

// interactionsWhere reads interactions newest first. column is one of the
// two fixed key names above.
func (db *DB) interactionsWhere(ctx context.Context, column, value string, limit int) (out []models.InteractionRecord, err error) {
	defer observe("query_by_"+column, "interactions", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	q := `SELECT ` + interactionColumns + ` FROM interactions WHERE ` + column + ` = ?
		ORDER BY created_at DESC, user_id, item_id`
	args := []any{value}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions by %s: %w", column, err)
	}
	defer closeWithLog(rows, "interaction rows")

	for rows.Next() {
		var (
			r         models.InteractionRecord
			eventType sql.NullString
			ev        sql.NullFloat64
		)
		if err = rows.Scan(&r.ItemID, &r.UserID, &eventType, &ev, &r.CreatedAt, &r.Liked); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		r.EventType, r.EventValue = eventType.String, ev.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}

// PopularItems implements store.Reader.
func (db *DB) PopularItems(ctx context.Context, limit int, excludeUser string) (out []store.ItemScore, err error) {
	defer observe("popular", "interactions", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 5
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT item_id, COUNT(*) AS likes FROM interactions
		 WHERE liked = 1
		   AND (? = '' OR item_id NOT IN (SELECT item_id FROM interactions WHERE user_id = ?))
		 GROUP BY item_id
		 ORDER BY likes DESC, item_id
		 LIMIT ?`, excludeUser, excludeUser, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank items: %w", err)
	}
	defer closeWithLog(rows, "popularity rows")

	for rows.Next() {
		var sc store.ItemScore
		if err = rows.Scan(&sc.ItemID, &sc.Likes); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
