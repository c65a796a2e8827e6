// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

const menuColumns = `item_id, other_ids, created_at, name, genres, genre_l2, genre_l3, product_description, content_classification`

// IncrementIngredient implements store.Writer.
func (db *DB) IncrementIngredient(ctx context.Context, name string) (err error) {
	defer observe("increment", "ingredients", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO ingredients (name, "count") VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET "count" = ingredients."count" + 1`, name)
	if err != nil {
		return fmt.Errorf("failed to increment ingredient %q: %w", name, err)
	}
	return nil
}

// ListIngredients implements store.Reader.
func (db *DB) ListIngredients(ctx context.Context) (out []models.IngredientRecord, err error) {
	defer observe("list", "ingredients", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT name, "count" FROM ingredients ORDER BY "count" DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer closeWithLog(rows, "ingredient rows")

	for rows.Next() {
		var rec models.IngredientRecord
		if err = rows.Scan(&rec.Name, &rec.Count); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateMenuIfAbsent implements store.Writer.
func (db *DB) CreateMenuIfAbsent(ctx context.Context, rec models.MenuRecord) (err error) {
	defer observe("create", "menus", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO menus (`+menuColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (item_id) DO NOTHING`,
		rec.ItemID, models.JoinIDs(rec.OtherIDs), rec.CreatedAt, rec.Name,
		rec.Genres, rec.GenreL2, rec.GenreL3, rec.ProductDescription, rec.ContentClassification)
	if err != nil {
		return fmt.Errorf("failed to insert menu %s: %w", rec.ItemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

// ScanMenus implements store.Writer with keyset pagination on item_id.
func (db *DB) ScanMenus(ctx context.Context, cursor string, limit int) (page store.MenuPage, err error) {
	defer observe("scan", "menus", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 500
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+menuColumns+` FROM menus WHERE item_id > ? ORDER BY item_id LIMIT ?`, cursor, limit+1)
	if err != nil {
		return page, fmt.Errorf("failed to scan menus: %w", err)
	}
	menus, err := scanMenuRows(rows)
	if err != nil {
		return page, err
	}
	if len(menus) > limit {
		menus = menus[:limit]
		page.Next = menus[limit-1].ItemID
	}
	page.Menus = menus
	return page, nil
}

// GetMenus implements store.Reader.
func (db *DB) GetMenus(ctx context.Context, ids []string) (out []models.MenuRecord, err error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer observe("get", "menus", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+menuColumns+` FROM menus WHERE item_id IN (`+placeholders(len(ids))+`) ORDER BY item_id`,
		stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get menus: %w", err)
	}
	return scanMenuRows(rows)
}

// SearchMenus implements store.Reader.
func (db *DB) SearchMenus(ctx context.Context, query string, limit int) (out []models.MenuRecord, err error) {
	defer observe("search", "menus", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	q := `SELECT ` + menuColumns + ` FROM menus
		WHERE name ILIKE ? ESCAPE '\' OR product_description ILIKE ? ESCAPE '\'
		ORDER BY item_id`
	args := []any{pattern, pattern}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search menus: %w", err)
	}
	return scanMenuRows(rows)
}

func scanMenuRows(rows *sql.Rows) ([]models.MenuRecord, error) {
	defer closeWithLog(rows, "menu rows")

	var out []models.MenuRecord
	for rows.Next() {
		var (
			rec    models.MenuRecord
			others string
			g1, g2 sql.NullString
			g3, pd sql.NullString
			cc     sql.NullString
		)
		if err := rows.Scan(&rec.ItemID, &others, &rec.CreatedAt, &rec.Name, &g1, &g2, &g3, &pd, &cc); err != nil {
			return nil, fmt.Errorf("failed to scan menu: %w", err)
		}
		rec.OtherIDs = models.SplitIDs(others)
		rec.Genres, rec.GenreL2, rec.GenreL3 = g1.String, g2.String, g3.String
		rec.ProductDescription, rec.ContentClassification = pd.String, cc.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("menu rows: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
