// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package main

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/eventprocessor"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/pipeline"
	"github.com/tomtom215/mealreco/internal/supervisor"
	"github.com/tomtom215/mealreco/internal/supervisor/services"
)

// busComponents holds the NATS event bus. A nil *busComponents means NATS
// is disabled and storage events are dispatched in process; every method is
// safe to call on nil.
type busComponents struct {
	bus *eventprocessor.Bus
}

// initBus connects the event bus when NATS_ENABLED=true.
func initBus(ctx context.Context, cfg *config.Config) (*busComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS event processing disabled (NATS_ENABLED=false), stages run in process")
		return nil, nil
	}

	logging.Info().Msg("Initializing NATS event processing...")
	bus, err := eventprocessor.NewBus(ctx, &cfg.NATS, watermill.NewSlogLogger(logging.NewSlogLogger()))
	if err != nil {
		return nil, err
	}
	return &busComponents{bus: bus}, nil
}

// publisher returns the storage event sink, or nil for in-process dispatch.
func (c *busComponents) publisher() objectstore.EventPublisher {
	if c == nil {
		return nil
	}
	return c.bus.Publisher()
}

func (c *busComponents) attach(stages pipeline.Stages) error {
	if c == nil {
		return nil
	}
	return c.bus.Attach(stages)
}

// check reports bus health for the readiness probe.
func (c *busComponents) check(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bus.Check(ctx)
}

// addToSupervisor adds the bus to the messaging layer. No-op when disabled.
func (c *busComponents) addToSupervisor(tree *supervisor.SupervisorTree, shutdownTimeout time.Duration) {
	if c == nil {
		return
	}
	tree.AddMessagingService(services.NewEventBusService(c.bus, shutdownTimeout))
	logging.Info().Msg("Event bus added to supervisor tree (messaging layer)")
}
