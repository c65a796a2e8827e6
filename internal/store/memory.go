// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/tomtom215/mealreco/internal/models"
)

// Memory is a Store held in process memory.
type Memory struct {
	mu           sync.RWMutex
	menus        map[string]models.MenuRecord
	ingredients  map[string]int64
	users        map[string]models.UserRecord
	interactions map[string]models.InteractionRecord

	// FailUsers, when set, decides per record whether a user batch put
	// leaves it unprocessed. Tests use it to simulate throttling.
	FailUsers func(models.UserRecord) bool
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		menus:        make(map[string]models.MenuRecord),
		ingredients:  make(map[string]int64),
		users:        make(map[string]models.UserRecord),
		interactions: make(map[string]models.InteractionRecord),
	}
}

// IncrementIngredient implements Writer.
func (m *Memory) IncrementIngredient(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingredients[name]++
	return nil
}

// CreateMenuIfAbsent implements Writer.
func (m *Memory) CreateMenuIfAbsent(_ context.Context, rec models.MenuRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menus[rec.ItemID]; ok {
		return ErrConflict
	}
	rec.OtherIDs = slices.Clone(rec.OtherIDs)
	m.menus[rec.ItemID] = rec
	return nil
}

// ScanMenus implements Writer. Pages are ordered by item id and the cursor
// is the last item id of the previous page.
func (m *Memory) ScanMenus(_ context.Context, cursor string, limit int) (MenuPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := sortedKeys(m.menus)
	start, _ := slices.BinarySearch(ids, cursor)
	if cursor != "" && start < len(ids) && ids[start] == cursor {
		start++
	}
	if limit <= 0 {
		limit = len(ids)
	}
	end := min(start+limit, len(ids))

	page := MenuPage{}
	for _, id := range ids[start:end] {
		page.Menus = append(page.Menus, m.menus[id])
	}
	if end < len(ids) && end > start {
		page.Next = ids[end-1]
	}
	return page, nil
}

// BatchPutUsers implements Writer.
func (m *Memory) BatchPutUsers(_ context.Context, users []models.UserRecord) ([]models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var unprocessed []models.UserRecord
	for _, u := range users {
		if m.FailUsers != nil && m.FailUsers(u) {
			unprocessed = append(unprocessed, u)
			continue
		}
		m.users[u.UserID] = u
	}
	return unprocessed, nil
}

// BatchPutInteractions implements Writer.
func (m *Memory) BatchPutInteractions(_ context.Context, recs []models.InteractionRecord) ([]models.InteractionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		m.interactions[r.ItemID+"\x00"+r.UserID] = r
	}
	return nil, nil
}

// GetMenus implements Reader. Unknown ids are skipped.
func (m *Memory) GetMenus(_ context.Context, ids []string) ([]models.MenuRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.MenuRecord
	for _, id := range ids {
		if rec, ok := m.menus[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SearchMenus implements Reader with a case-insensitive substring match on
// name and description.
func (m *Memory) SearchMenus(_ context.Context, query string, limit int) ([]models.MenuRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.MenuRecord
	for _, id := range sortedKeys(m.menus) {
		rec := m.menus[id]
		if strings.Contains(strings.ToLower(rec.Name), q) || strings.Contains(strings.ToLower(rec.ProductDescription), q) {
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// ListIngredients implements Reader, most used first.
func (m *Memory) ListIngredients(_ context.Context) ([]models.IngredientRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.IngredientRecord, 0, len(m.ingredients))
	for name, count := range m.ingredients {
		out = append(out, models.IngredientRecord{Name: name, Count: count})
	}
	slices.SortFunc(out, func(a, b models.IngredientRecord) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// ListUsers implements Reader.
func (m *Memory) ListUsers(_ context.Context, after string, limit int) (UserPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := sortedKeys(m.users)
	start := 0
	if after != "" {
		start, _ = slices.BinarySearch(ids, after)
		if start < len(ids) && ids[start] == after {
			start++
		}
	}
	if limit <= 0 {
		limit = len(ids)
	}
	end := min(start+limit, len(ids))
	page := UserPage{}
	for _, id := range ids[start:end] {
		page.Users = append(page.Users, m.users[id])
	}
	if end < len(ids) && end > start {
		page.Next = ids[end-1]
	}
	return page, nil
}

// CountUsers implements Reader.
func (m *Memory) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

// UsersWhoLiked implements Reader.
func (m *Memory) UsersWhoLiked(_ context.Context, itemIDs []string) ([]models.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	seen := make(map[string]bool)
	for _, r := range m.interactions {
		if r.Liked == 1 && wanted[r.ItemID] {
			seen[r.UserID] = true
		}
	}
	var out []models.UserRecord
	for _, id := range sortedKeys(seen) {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// InteractionsByUser implements Reader, newest first.
func (m *Memory) InteractionsByUser(_ context.Context, userID string, limit int) ([]models.InteractionRecord, error) {
	return m.filterInteractions(func(r models.InteractionRecord) bool { return r.UserID == userID }, limit), nil
}

// InteractionsByItem implements Reader, newest first.
func (m *Memory) InteractionsByItem(_ context.Context, itemID string, limit int) ([]models.InteractionRecord, error) {
	return m.filterInteractions(func(r models.InteractionRecord) bool { return r.ItemID == itemID }, limit), nil
}

func (m *Memory) filterInteractions(keep func(models.InteractionRecord) bool, limit int) []models.InteractionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.InteractionRecord
	for _, r := range m.interactions {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.InteractionRecord) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PopularItems implements Reader.
func (m *Memory) PopularItems(_ context.Context, limit int, excludeUser string) ([]ItemScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	excluded := make(map[string]bool)
	if excludeUser != "" {
		for _, r := range m.interactions {
			if r.UserID == excludeUser {
				excluded[r.ItemID] = true
			}
		}
	}
	likes := make(map[string]int64)
	for _, r := range m.interactions {
		if r.Liked == 1 && !excluded[r.ItemID] {
			likes[r.ItemID]++
		}
	}
	return RankScores(likes, limit), nil
}

// Ping implements Store.
func (m *Memory) Ping(context.Context) error { return nil }

// Close implements Store.
func (m *Memory) Close() error { return nil }

// RankScores orders like counts descending, ties by item id, and keeps the
// first limit entries.
func RankScores(likes map[string]int64, limit int) []ItemScore {
	out := make([]ItemScore, 0, len(likes))
	for id, n := range likes {
		out = append(out, ItemScore{ItemID: id, Likes: n})
	}
	slices.SortFunc(out, func(a, b ItemScore) int {
		if c := cmp.Compare(b.Likes, a.Likes); c != 0 {
			return c
		}
		return strings.Compare(a.ItemID, b.ItemID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
