// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package storetest holds the behavior shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

// Factory returns an empty store. The factory registers its own cleanup.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against fresh stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("menu create is once only", func(t *testing.T) { testMenuCreateOnce(t, newStore(t)) })
	t.Run("menu scan pages", func(t *testing.T) { testMenuScan(t, newStore(t)) })
	t.Run("ingredient counters", func(t *testing.T) { testIngredients(t, newStore(t)) })
	t.Run("users upsert and page", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("interactions latest wins", func(t *testing.T) { testInteractions(t, newStore(t)) })
	t.Run("liked users and popularity", func(t *testing.T) { testLikes(t, newStore(t)) })
}

func menu(id string, others ...string) models.MenuRecord {
	return models.MenuRecord{
		ItemID:                id,
		OtherIDs:              others,
		CreatedAt:             1700000000,
		Name:                  "Menu " + id,
		Genres:                "beef",
		GenreL2:               "rice",
		GenreL3:               "pepper",
		ProductDescription:    "Menu " + id + "|onion",
		ContentClassification: "none",
	}
}

func testMenuCreateOnce(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := menu("m1", "alt-1")
	if err := s.CreateMenuIfAbsent(ctx, first); err != nil {
		t.Fatalf("CreateMenuIfAbsent: %v", err)
	}
	second := menu("m1")
	second.Name = "Renamed"
	if err := s.CreateMenuIfAbsent(ctx, second); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second create err = %v, want ErrConflict", err)
	}

	got, err := s.GetMenus(ctx, []string{"m1", "missing"})
	if err != nil {
		t.Fatalf("GetMenus: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("GetMenus returned %d menus, want 1", len(got))
	}
	if got[0].Name != "Menu m1" {
		t.Errorf("Name = %q, existing menu must not change", got[0].Name)
	}
	if len(got[0].OtherIDs) != 1 || got[0].OtherIDs[0] != "alt-1" {
		t.Errorf("OtherIDs = %v, want [alt-1]", got[0].OtherIDs)
	}

	found, err := s.SearchMenus(ctx, "MENU M1", 10)
	if err != nil {
		t.Fatalf("SearchMenus: %v", err)
	}
	if len(found) != 1 || found[0].ItemID != "m1" {
		t.Errorf("SearchMenus = %v, want m1", found)
	}
}

func testMenuScan(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if err := s.CreateMenuIfAbsent(ctx, menu(id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	page, err := s.ScanMenus(ctx, "", 2)
	if err != nil {
		t.Fatalf("ScanMenus: %v", err)
	}
	if len(page.Menus) != 2 || page.Next == "" {
		t.Fatalf("first page = %d menus, next %q", len(page.Menus), page.Next)
	}

	all, err := store.AllMenus(ctx, s, 2)
	if err != nil {
		t.Fatalf("AllMenus: %v", err)
	}
	seen := make(map[string]bool)
	for _, m := range all {
		seen[m.ItemID] = true
	}
	if len(all) != 5 || len(seen) != 5 {
		t.Errorf("AllMenus returned %d menus (%d distinct), want 5", len(all), len(seen))
	}
}

func testIngredients(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, name := range []string{"onion", "beef", "onion", "onion", "beef", "rice"} {
		if err := s.IncrementIngredient(ctx, name); err != nil {
			t.Fatalf("IncrementIngredient(%s): %v", name, err)
		}
	}
	got, err := s.ListIngredients(ctx)
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	want := []models.IngredientRecord{{Name: "onion", Count: 3}, {Name: "beef", Count: 2}, {Name: "rice", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("ListIngredients = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ingredient[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	ts := int64(1690000000)
	users := []models.UserRecord{
		{UserID: "u1", ShippingCity: "Seattle", ShippingState: "WA", Locale: "en_US", CreatedAt: &ts},
		{UserID: "u2", ShippingCity: "Austin", ShippingState: "TX", Locale: "en_US"},
		{UserID: "u3", ShippingCity: "Lyon", Locale: "fr_FR", CreatedAt: &ts},
	}
	if left, err := s.BatchPutUsers(ctx, users); err != nil || len(left) != 0 {
		t.Fatalf("BatchPutUsers: left %d, err %v", len(left), err)
	}
	moved := users[0]
	moved.ShippingCity = "Portland"
	if _, err := s.BatchPutUsers(ctx, []models.UserRecord{moved}); err != nil {
		t.Fatalf("BatchPutUsers overwrite: %v", err)
	}

	n, err := s.CountUsers(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountUsers = %d, %v, want 3", n, err)
	}

	first, err := s.ListUsers(ctx, "", 2)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(first.Users) != 2 || first.Next == "" {
		t.Fatalf("first page = %d users, next %q", len(first.Users), first.Next)
	}
	rest, err := s.ListUsers(ctx, first.Next, 2)
	if err != nil {
		t.Fatalf("ListUsers after: %v", err)
	}
	if len(rest.Users) != 1 || rest.Next != "" {
		t.Fatalf("second page = %d users, next %q", len(rest.Users), rest.Next)
	}

	for _, u := range append(first.Users, rest.Users...) {
		switch u.UserID {
		case "u1":
			if u.ShippingCity != "Portland" {
				t.Errorf("u1 city = %q, latest put should win", u.ShippingCity)
			}
			if u.CreatedAt == nil || *u.CreatedAt != ts {
				t.Errorf("u1 CreatedAt = %v", u.CreatedAt)
			}
		case "u2":
			if u.CreatedAt != nil {
				t.Errorf("u2 CreatedAt = %v, want nil", *u.CreatedAt)
			}
		}
	}
}

func testInteractions(t *testing.T, s store.Store) {
	ctx := context.Background()
	recs := []models.InteractionRecord{
		{ItemID: "m1", UserID: "u1", EventType: models.EventTypeWatch, EventValue: 3, CreatedAt: 100},
		{ItemID: "m2", UserID: "u1", EventType: models.EventTypeClick, EventValue: 5, CreatedAt: 300, Liked: 1},
		{ItemID: "m3", UserID: "u1", EventType: models.EventTypeWatch, EventValue: 1, CreatedAt: 200},
		{ItemID: "m1", UserID: "u2", EventType: models.EventTypeWatch, EventValue: 4, CreatedAt: 150},
	}
	if left, err := s.BatchPutInteractions(ctx, recs); err != nil || len(left) != 0 {
		t.Fatalf("BatchPutInteractions: left %d, err %v", len(left), err)
	}
	update := recs[0]
	update.EventValue = 9
	update.CreatedAt = 400
	update.Liked = 1
	if _, err := s.BatchPutInteractions(ctx, []models.InteractionRecord{update}); err != nil {
		t.Fatalf("BatchPutInteractions overwrite: %v", err)
	}

	byUser, err := s.InteractionsByUser(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("InteractionsByUser: %v", err)
	}
	wantOrder := []string{"m1", "m2", "m3"}
	if len(byUser) != len(wantOrder) {
		t.Fatalf("InteractionsByUser = %d rows, want %d", len(byUser), len(wantOrder))
	}
	for i, id := range wantOrder {
		if byUser[i].ItemID != id {
			t.Errorf("byUser[%d] = %s, want %s (newest first)", i, byUser[i].ItemID, id)
		}
	}
	if got := byUser[0]; got.EventValue != 9 || got.CreatedAt != 400 || got.Liked != 1 {
		t.Errorf("re-imported m1 = %+v, every column of the latest put should win", got)
	}

	limited, err := s.InteractionsByUser(ctx, "u1", 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited = %d rows, err %v", len(limited), err)
	}

	byItem, err := s.InteractionsByItem(ctx, "m1", 5)
	if err != nil {
		t.Fatalf("InteractionsByItem: %v", err)
	}
	if len(byItem) != 2 || byItem[0].UserID != "u1" {
		t.Errorf("InteractionsByItem = %+v", byItem)
	}
}

func testLikes(t *testing.T, s store.Store) {
	ctx := context.Background()
	users := []models.UserRecord{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}}
	if _, err := s.BatchPutUsers(ctx, users); err != nil {
		t.Fatalf("BatchPutUsers: %v", err)
	}
	recs := []models.InteractionRecord{
		{ItemID: "m1", UserID: "u1", Liked: 1, CreatedAt: 1},
		{ItemID: "m1", UserID: "u2", Liked: 1, CreatedAt: 2},
		{ItemID: "m2", UserID: "u2", Liked: 1, CreatedAt: 3},
		{ItemID: "m2", UserID: "u3", Liked: 0, CreatedAt: 4},
		{ItemID: "m3", UserID: "u3", Liked: 1, CreatedAt: 5},
	}
	if _, err := s.BatchPutInteractions(ctx, recs); err != nil {
		t.Fatalf("BatchPutInteractions: %v", err)
	}

	liked, err := s.UsersWhoLiked(ctx, []string{"m2"})
	if err != nil {
		t.Fatalf("UsersWhoLiked: %v", err)
	}
	if len(liked) != 1 || liked[0].UserID != "u2" {
		t.Errorf("UsersWhoLiked(m2) = %+v, want [u2]", liked)
	}
	both, err := s.UsersWhoLiked(ctx, []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("UsersWhoLiked: %v", err)
	}
	if len(both) != 2 {
		t.Errorf("UsersWhoLiked(m1,m2) = %d users, want 2 distinct", len(both))
	}

	top, err := s.PopularItems(ctx, 5, "")
	if err != nil {
		t.Fatalf("PopularItems: %v", err)
	}
	if len(top) != 3 || top[0].ItemID != "m1" || top[0].Likes != 2 {
		t.Errorf("PopularItems = %+v, want m1 first with 2 likes", top)
	}

	forU1, err := s.PopularItems(ctx, 5, "u1")
	if err != nil {
		t.Fatalf("PopularItems excluding: %v", err)
	}
	for _, sc := range forU1 {
		if sc.ItemID == "m1" {
			t.Errorf("PopularItems for u1 includes m1, which u1 already interacted with")
		}
	}
	if len(forU1) != 2 {
		t.Errorf("PopularItems for u1 = %+v, want 2 items", forU1)
	}
}
