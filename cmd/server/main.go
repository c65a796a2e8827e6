// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/mealreco/internal/app"
	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/supervisor"
	"github.com/tomtom215/mealreco/internal/supervisor/services"
	"github.com/tomtom215/mealreco/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("lake", cfg.Lake.Backend).
		Str("store", cfg.Store.Backend).
		Str("enrichment", cfg.Enrichment.Provider).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting Mealreco with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backends, err := app.Open(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open backends")
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing backends")
		}
	}()

	bus, err := initBus(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}

	pipe, err := app.NewPipeline(cfg, backends, bus.publisher())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build pipeline")
	}
	if err := bus.attach(pipe.Stages); err != nil {
		logging.Fatal().Err(err).Msg("Failed to attach stages to event bus")
	}

	wsHub := websocket.NewHub()
	pipe.Stages.Observe(wsHub.BroadcastSummary)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newRouter(cfg, backends, pipe, bus, wsHub).SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	addMaintenance(tree, cfg, backends)
	tree.AddMessagingService(wsHub)
	bus.addToSupervisor(tree, cfg.Supervisor.ShutdownTimeout)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
