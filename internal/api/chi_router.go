// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/mealreco/internal/middleware"
)

// Router binds the handlers to their routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses the default middleware config.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global, in order. CORS must be global to answer OPTIONS preflight.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/menus", router.handler.Menus)
		r.Get("/menus/search", router.handler.SearchMenus)
		r.Get("/ingredients", router.handler.Ingredients)

		r.Get("/users", router.handler.Users)
		r.Get("/users/count", router.handler.CountUsers)
		r.Get("/users/liked", router.handler.UsersWhoLiked)

		r.Get("/interactions", router.handler.Interactions)
		r.Get("/recommendations/popular", router.handler.Popular)
		r.Get("/recommendations/picks", router.handler.Picks)

		r.Get("/lake/{stage}", router.handler.ListObjects)
		r.Put("/lake/raw/{filename}", router.handler.UploadRaw)

		r.Get("/ws", router.handler.WebSocket)

		// Model-backed endpoints get a tighter budget.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitGeneration())
			r.Post("/menus/creator", router.handler.CreateMenus)
			r.Post("/menus/image", router.handler.MenuImage)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
