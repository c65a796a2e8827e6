// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package curated

import (
	"context"
	"fmt"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

// ReconciliationIndex maps every known menu identifier, canonical or
// alternate, to the canonical item id.
type ReconciliationIndex map[string]string

// NewIndex builds an index over menus. A canonical id always resolves to
// itself. When two menus list the same alternate id, the first menu wins.
func NewIndex(menus []models.MenuRecord) ReconciliationIndex {
	idx := make(ReconciliationIndex, len(menus))
	for _, m := range menus {
		idx[m.ItemID] = m.ItemID
	}
	for _, m := range menus {
		for _, alt := range m.OtherIDs {
			if _, taken := idx[alt]; !taken {
				idx[alt] = m.ItemID
			}
		}
	}
	return idx
}

// BuildIndex scans every page of menus and indexes them.
func BuildIndex(ctx context.Context, w store.Writer, pageSize int) (ReconciliationIndex, error) {
	menus, err := store.AllMenus(ctx, w, pageSize)
	if err != nil {
		return nil, fmt.Errorf("build reconciliation index: %w", err)
	}
	return NewIndex(menus), nil
}

// Resolve returns the canonical id for id.
func (idx ReconciliationIndex) Resolve(id string) (string, bool) {
	canonical, ok := idx[id]
	return canonical, ok
}
