// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package services

import (
	"context"
	"fmt"
	"time"
)

// EventBus is the lifecycle of *eventprocessor.Bus.
type EventBus interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// EventBusService runs the stage router under supervision. A failed Start
// is returned so suture restarts the service with backoff.
//
//	bus, _ := eventprocessor.NewBus(ctx, &cfg.NATS, logger)
//	_ = bus.Attach(stages)
//	tree.AddMessagingService(services.NewEventBusService(bus, 30*time.Second))
type EventBusService struct {
	bus             EventBus
	shutdownTimeout time.Duration
	name            string
}

// NewEventBusService wraps bus. shutdownTimeout bounds in-flight handlers
// on stop and defaults to 30s.
func NewEventBusService(bus EventBus, shutdownTimeout time.Duration) *EventBusService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	return &EventBusService{
		bus:             bus,
		shutdownTimeout: shutdownTimeout,
		name:            "event-bus",
	}
}

// Serve implements suture.Service.
func (s *EventBusService) Serve(ctx context.Context) error {
	if err := s.bus.Start(ctx); err != nil {
		return fmt.Errorf("event bus start failed: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.bus.Shutdown(shutdownCtx)
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *EventBusService) String() string {
	return s.name
}
