// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/mealreco/internal/enrichment"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

// Menus handles GET /menus. With ids it is a batch lookup, otherwise a
// full scan.
func (h *Handler) Menus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ids := parseCommaSeparated(r.URL.Query().Get("ids"))
	var (
		menus []models.MenuRecord
		err   error
	)
	if len(ids) > 0 {
		if apiErr := validateRequest(&IDListRequest{IDs: ids}); apiErr != nil {
			respondAPIError(w, http.StatusBadRequest, apiErr)
			return
		}
		menus, err = h.records.GetMenus(r.Context(), ids)
	} else {
		menus, err = store.AllMenus(r.Context(), h.records, h.config.MaxPageSize)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load menus", err)
		return
	}
	if menus == nil {
		menus = []models.MenuRecord{}
	}
	respondSuccess(w, http.StatusOK, menus, len(menus), start)
}

// SearchMenus handles GET /menus/search?search=q.
func (h *Handler) SearchMenus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := MenuSearchRequest{Search: r.URL.Query().Get("search")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	menus, err := h.records.SearchMenus(r.Context(), req.Search, topN)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to search menus", err)
		return
	}
	if menus == nil {
		menus = []models.MenuRecord{}
	}
	respondSuccess(w, http.StatusOK, menus, len(menus), start)
}

// Ingredients handles GET /ingredients, most used first.
func (h *Handler) Ingredients(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ingredients, err := cached(r.Context(), h.ingredientsCache, "all", h.records.ListIngredients)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load ingredients", err)
		return
	}
	if ingredients == nil {
		ingredients = []models.IngredientRecord{}
	}
	respondSuccess(w, http.StatusOK, ingredients, len(ingredients), start)
}

// CreateMenus handles POST /menus/creator.
func (h *Handler) CreateMenus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.creator == nil {
		respondError(w, http.StatusNotImplemented, CodeNotImplemented, "Menu creation is not configured", nil)
		return
	}

	var req MenuCreatorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	ideas, err := h.creator.Create(r.Context(), req.Ingredients)
	switch {
	case errors.Is(err, enrichment.ErrNoIngredients):
		respondError(w, http.StatusBadRequest, CodeValidation, "ingredients is required", nil)
		return
	case errors.Is(err, enrichment.ErrDisabled):
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "Menu creation is not available", nil)
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Int("ingredients", len(req.Ingredients)).Msg("Menu creation failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
		return
	}
	respondSuccess(w, http.StatusOK, ideas, len(ideas), start)
}

// MenuImageResponse is the data of a successful POST /menus/image.
type MenuImageResponse struct {
	Image string `json:"image"`
}

// MenuImage handles POST /menus/image. Failures return a generic message;
// details only reach the log.
func (h *Handler) MenuImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.images == nil {
		respondError(w, http.StatusNotImplemented, CodeNotImplemented, "Image generation is not configured", nil)
		return
	}

	var req MenuImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	image, err := h.images.Generate(r.Context(), req.Description)
	switch {
	case errors.Is(err, enrichment.ErrNoDescription):
		respondError(w, http.StatusBadRequest, CodeValidation, "description is required", nil)
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Image generation failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
		return
	}
	respondSuccess(w, http.StatusOK, MenuImageResponse{Image: image}, 0, start)
}
