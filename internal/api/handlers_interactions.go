// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

// Interactions handles GET /interactions?user_id= or ?item_id=, newest
// first.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := r.URL.Query()
	req := InteractionsRequest{UserID: q.Get("user_id"), ItemID: q.Get("item_id")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	var (
		recs []models.InteractionRecord
		err  error
	)
	if req.UserID != "" {
		recs, err = h.records.InteractionsByUser(r.Context(), req.UserID, topN)
	} else {
		recs, err = h.records.InteractionsByItem(r.Context(), req.ItemID, topN)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load interactions", err)
		return
	}
	if recs == nil {
		recs = []models.InteractionRecord{}
	}
	respondSuccess(w, http.StatusOK, recs, len(recs), start)
}

// Popular handles GET /recommendations/popular.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	h.respondPopular(w, r, "")
}

// Picks handles GET /recommendations/picks?user_id=: the most liked items
// the user has not interacted with yet.
func (h *Handler) Picks(w http.ResponseWriter, r *http.Request) {
	req := PicksRequest{UserID: r.URL.Query().Get("user_id")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	h.respondPopular(w, r, req.UserID)
}

func (h *Handler) respondPopular(w http.ResponseWriter, r *http.Request, excludeUser string) {
	start := time.Now()

	scores, err := cached(r.Context(), h.popularCache, excludeUser, func(ctx context.Context) ([]store.ItemScore, error) {
		return h.records.PopularItems(ctx, topN, excludeUser)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to rank items", err)
		return
	}
	if scores == nil {
		scores = []store.ItemScore{}
	}
	respondSuccess(w, http.StatusOK, scores, len(scores), start)
}
