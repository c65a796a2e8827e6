// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package main

import (
	"context"

	"github.com/tomtom215/mealreco/internal/api"
	"github.com/tomtom215/mealreco/internal/app"
	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/supervisor"
	"github.com/tomtom215/mealreco/internal/supervisor/services"
	"github.com/tomtom215/mealreco/internal/websocket"
)

// badgerGCRatio is the value log discard ratio that triggers a rewrite.
const badgerGCRatio = 0.5

func newRouter(cfg *config.Config, b *app.Backends, p *app.Pipeline, bus *busComponents, hub *websocket.Hub) *api.Router {
	// Keep a nil generator a nil interface so the handler answers 501.
	var images api.ImageGenerator
	if p.Images != nil {
		images = p.Images
	}

	handler := api.NewHandler(cfg.API, b.Store, p.Lake, hub).WithGeneration(p.Creator, images)
	if bus != nil {
		handler.AddHealthCheck("event-bus", bus.check)
	}
	p.Stages.Observe(handler.InvalidateOnSummary)

	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.API))
	return api.NewRouter(handler, mw)
}

// addMaintenance adds periodic upkeep for the embedded stores to the data
// layer.
func addMaintenance(tree *supervisor.SupervisorTree, cfg *config.Config, b *app.Backends) {
	interval := cfg.Supervisor.MaintenanceInterval

	if b.Badger != nil {
		tree.AddDataService(services.NewMaintenanceService("badger-gc", interval,
			func(context.Context) error { return b.Badger.RunGC(badgerGCRatio) }))
		logging.Info().Dur("interval", interval).Msg("Badger value log GC added to supervisor tree")
	}
	if b.DuckDB != nil {
		tree.AddDataService(services.NewMaintenanceService("duckdb-checkpoint", interval, b.DuckDB.Checkpoint))
		logging.Info().Dur("interval", interval).Msg("DuckDB checkpoint added to supervisor tree")
	}
}
