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

const userColumns = `user_id, shipping_city, shipping_state, locale, created_at`

// BatchPutUsers implements store.Writer. The batch is written in one
// transaction, so either every user is processed or an error is returned.
func (db *DB) BatchPutUsers(ctx context.Context, users []models.UserRecord) (_ []models.UserRecord, err error) {
	if len(users) == 0 {
		return nil, nil
	}
	defer observe("batch_put", "users", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	err = db.inTx(ctx, `INSERT OR REPLACE INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		len(users), func(i int) []any {
			u := users[i]
			var created sql.NullInt64
			if u.CreatedAt != nil {
				created = sql.NullInt64{Int64: *u.CreatedAt, Valid: true}
			}
			return []any{u.UserID, u.ShippingCity, u.ShippingState, u.Locale, created}
		})
	if err != nil {
		return nil, fmt.Errorf("failed to put users: %w", err)
	}
	return nil, nil
}

// ListUsers implements store.Reader.
func (db *DB) ListUsers(ctx context.Context, after string, limit int) (page store.UserPage, err error) {
	defer observe("list", "users", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id > ? ORDER BY user_id LIMIT ?`, after, limit+1)
	if err != nil {
		return page, fmt.Errorf("failed to list users: %w", err)
	}
	users, err := scanUserRows(rows)
	if err != nil {
		return page, err
	}
	if len(users) > limit {
		users = users[:limit]
		page.Next = users[limit-1].UserID
	}
	page.Users = users
	return page, nil
}

// CountUsers implements store.Reader.
func (db *DB) CountUsers(ctx context.Context) (n int64, err error) {
	defer observe("count", "users", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// UsersWhoLiked implements store.Reader.
func (db *DB) UsersWhoLiked(ctx context.Context, itemIDs []string) (out []models.UserRecord, err error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	defer observe("liked", "users", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE user_id IN (
			SELECT DISTINCT user_id FROM interactions
			WHERE liked = 1 AND item_id IN (`+placeholders(len(itemIDs))+`)
		 )
		 ORDER BY user_id`, stringArgs(itemIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked users: %w", err)
	}
	return scanUserRows(rows)
}

func scanUserRows(rows *sql.Rows) ([]models.UserRecord, error) {
	defer closeWithLog(rows, "user rows")

	var out []models.UserRecord
	for rows.Next() {
		var (
			u                   models.UserRecord
			city, state, locale sql.NullString
			created             sql.NullInt64
		)
		if err := rows.Scan(&u.UserID, &city, &state, &locale, &created); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.ShippingCity, u.ShippingState, u.Locale = city.String, state.String, locale.String
		if created.Valid {
			v := created.Int64
			u.CreatedAt = &v
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user rows: %w", err)
	}
	return out, nil
}

// inTx runs one prepared statement n times inside a transaction.
func (db *DB) inTx(ctx context.Context, query string, n int, args func(i int) []any) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range n {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
