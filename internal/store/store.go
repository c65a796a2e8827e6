// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/mealreco/internal/models"
)

var (
	// ErrConflict is returned by CreateMenuIfAbsent when the item id exists.
	ErrConflict = errors.New("store: record already exists")

	// ErrNotFound is returned for lookups of a single missing record.
	ErrNotFound = errors.New("store: record not found")
)

// MenuPage is one page of a menu scan. Next is empty on the last page.
type MenuPage struct {
	Menus []models.MenuRecord
	Next  string
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users []models.UserRecord `json:"users"`
	Next  string              `json:"next,omitempty"`
}

// ItemScore ranks an item by how many users liked it.
type ItemScore struct {
	ItemID string `json:"item_id"`
	Likes  int64  `json:"likes"`
}

// Writer is the side of the store the curated writer uses.
type Writer interface {
	// IncrementIngredient adds one to the named counter, creating it at 1.
	IncrementIngredient(ctx context.Context, name string) error
	// CreateMenuIfAbsent inserts rec, or returns ErrConflict when a menu
	// with the same item id exists. Existing menus are never modified.
	CreateMenuIfAbsent(ctx context.Context, rec models.MenuRecord) error
	// ScanMenus returns the page of menus after cursor.
	ScanMenus(ctx context.Context, cursor string, limit int) (MenuPage, error)
	// BatchPutUsers upserts users and returns those not processed.
	BatchPutUsers(ctx context.Context, users []models.UserRecord) ([]models.UserRecord, error)
	// BatchPutInteractions upserts interactions by (item, user) and returns
	// those not processed.
	BatchPutInteractions(ctx context.Context, recs []models.InteractionRecord) ([]models.InteractionRecord, error)
}

// Reader is the side of the store the query API uses.
type Reader interface {
	GetMenus(ctx context.Context, ids []string) ([]models.MenuRecord, error)
	SearchMenus(ctx context.Context, query string, limit int) ([]models.MenuRecord, error)
	ListIngredients(ctx context.Context) ([]models.IngredientRecord, error)
	ListUsers(ctx context.Context, after string, limit int) (UserPage, error)
	CountUsers(ctx context.Context) (int64, error)
	UsersWhoLiked(ctx context.Context, itemIDs []string) ([]models.UserRecord, error)
	InteractionsByUser(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error)
	InteractionsByItem(ctx context.Context, itemID string, limit int) ([]models.InteractionRecord, error)
	// PopularItems ranks items by like count. Items excludeUser has
	// interacted with are left out when excludeUser is set.
	PopularItems(ctx context.Context, limit int, excludeUser string) ([]ItemScore, error)
}

// Store is a complete curated record store.
type Store interface {
	Writer
	Reader
	Ping(ctx context.Context) error
	Close() error
}

// AllMenus scans every page of menus.
func AllMenus(ctx context.Context, w Writer, pageSize int) ([]models.MenuRecord, error) {
	var all []models.MenuRecord
	cursor := ""
	for {
		page, err := w.ScanMenus(ctx, cursor, pageSize)
		if err != nil {
			return nil, fmt.Errorf("scan menus: %w", err)
		}
		all = append(all, page.Menus...)
		if page.Next == "" {
			return all, nil
		}
		cursor = page.Next
	}
}
