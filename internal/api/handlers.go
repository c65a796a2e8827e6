// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"context"
	"time"

	"github.com/tomtom215/mealreco/internal/cache"
	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/enrichment"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/store"
	"github.com/tomtom215/mealreco/internal/websocket"
)

// topN is the result size of search, interaction and recommendation
// endpoints.
const topN = 5

// maxCachedRankings bounds the per-user picks held in the query cache.
const maxCachedRankings = 4096

// MenuCreator proposes menus for a set of ingredients.
type MenuCreator interface {
	Create(ctx context.Context, ingredients []string) ([]enrichment.MenuIdea, error)
}

// ImageGenerator renders a dish description as a base64 PNG.
type ImageGenerator interface {
	Generate(ctx context.Context, description string) (string, error)
}

// HealthCheck is one readiness dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves the query API over the curated store and the lake.
type Handler struct {
	config  config.APIConfig
	records store.Store
	lake    objectstore.Store
	hub     *websocket.Hub

	creator MenuCreator
	images  ImageGenerator

	// Ranking caches; nil when API_CACHE_TTL is 0.
	ingredientsCache *cache.Cache[[]models.IngredientRecord]
	popularCache     *cache.Cache[[]store.ItemScore]

	checks    []HealthCheck
	startTime time.Time
}

// NewHandler creates a Handler. lake receives uploads and should publish
// storage events so the pipeline picks them up. hub may be nil, in which
// case /ws answers 503.
func NewHandler(cfg config.APIConfig, records store.Store, lake objectstore.Store, hub *websocket.Hub) *Handler {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 1000
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	h := &Handler{
		config:    cfg,
		records:   records,
		lake:      lake,
		hub:       hub,
		checks:    []HealthCheck{{Name: "store", Check: records.Ping}},
		startTime: time.Now(),
	}
	if cfg.CacheTTL > 0 {
		h.ingredientsCache = cache.New[[]models.IngredientRecord]("ingredients", cfg.CacheTTL, 1)
		h.popularCache = cache.New[[]store.ItemScore]("popular", cfg.CacheTTL, maxCachedRankings)
	}
	return h
}

// InvalidateOnSummary flushes the query caches once the curated stage has
// written records. Its signature matches pipeline.Stages.Observe.
func (h *Handler) InvalidateOnSummary(_ context.Context, s models.Summary) {
	if h.ingredientsCache == nil || s.Stage != string(models.StageCurated) || s.Written == 0 {
		return
	}
	h.ingredientsCache.Clear()
	h.popularCache.Clear()
}

// WithGeneration enables the menu creator and image endpoints. Either
// argument may be nil to leave that endpoint disabled.
func (h *Handler) WithGeneration(creator MenuCreator, images ImageGenerator) *Handler {
	h.creator = creator
	h.images = images
	return h
}

// AddHealthCheck registers a readiness dependency.
func (h *Handler) AddHealthCheck(name string, check func(ctx context.Context) error) {
	h.checks = append(h.checks, HealthCheck{Name: name, Check: check})
}
