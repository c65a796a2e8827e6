// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/mealreco/internal/models"
)

// Users handles GET /users?limit&after. after is the last user id of the
// previous page; the response carries the next cursor.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := UsersRequest{
		Limit: getIntParam(r, "limit", h.config.DefaultPageSize),
		After: r.URL.Query().Get("after"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	req.Limit = min(req.Limit, h.config.MaxPageSize)

	page, err := h.records.ListUsers(r.Context(), req.After, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to list users", err)
		return
	}
	if page.Users == nil {
		page.Users = []models.UserRecord{}
	}
	respondSuccess(w, http.StatusOK, page, len(page.Users), start)
}

// UserCountResponse is the data of GET /users/count.
type UserCountResponse struct {
	Count int64 `json:"count"`
}

// CountUsers handles GET /users/count.
func (h *Handler) CountUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, err := h.records.CountUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to count users", err)
		return
	}
	respondSuccess(w, http.StatusOK, UserCountResponse{Count: n}, 0, start)
}

// UsersWhoLiked handles GET /users/liked?itemIds=a,b.
func (h *Handler) UsersWhoLiked(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := IDListRequest{IDs: parseCommaSeparated(r.URL.Query().Get("itemIds"))}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	users, err := h.records.UsersWhoLiked(r.Context(), req.IDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load users", err)
		return
	}
	if users == nil {
		users = []models.UserRecord{}
	}
	respondSuccess(w, http.StatusOK, users, len(users), start)
}
