// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package store_test

import (
	"context"
	"testing"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
	"github.com/tomtom215/mealreco/internal/store/storetest"
)

func TestMemoryContract(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemory() })
}

func TestMemoryFailUsers(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	m.FailUsers = func(u models.UserRecord) bool { return u.UserID == "u2" }

	left, err := m.BatchPutUsers(context.Background(), []models.UserRecord{{UserID: "u1"}, {UserID: "u2"}})
	if err != nil {
		t.Fatalf("BatchPutUsers: %v", err)
	}
	if len(left) != 1 || left[0].UserID != "u2" {
		t.Errorf("unprocessed = %+v, want [u2]", left)
	}
	if n, _ := m.CountUsers(context.Background()); n != 1 {
		t.Errorf("CountUsers = %d, want 1", n)
	}
}

func TestRankScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		likes map[string]int64
		limit int
		want  []string
	}{
		{"empty", nil, 5, nil},
		{"ties by id", map[string]int64{"b": 2, "a": 2, "c": 5}, 5, []string{"c", "a", "b"}},
		{"limit", map[string]int64{"a": 1, "b": 2, "c": 3}, 2, []string{"c", "b"}},
		{"no limit", map[string]int64{"a": 1, "b": 2}, 0, []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := store.RankScores(tt.likes, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("RankScores = %+v, want %v", got, tt.want)
			}
			for i, id := range tt.want {
				if got[i].ItemID != id {
					t.Errorf("[%d] = %s, want %s", i, got[i].ItemID, id)
				}
			}
		})
	}
}
