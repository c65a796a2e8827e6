// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package services

import (
	"context"
	"time"

	"github.com/tomtom215/mealreco/internal/logging"
)

// Task is one maintenance pass. Errors are logged and the next tick runs
// regardless; a task never restarts its service.
type Task func(ctx context.Context) error

// MaintenanceService runs a task on a fixed interval:
//
//	tree.AddDataService(services.NewMaintenanceService("badger-gc", 10*time.Minute,
//	    func(context.Context) error { return lake.RunGC(0.5) }))
//	tree.AddDataService(services.NewMaintenanceService("duckdb-checkpoint", 10*time.Minute, db.Checkpoint))
type MaintenanceService struct {
	name     string
	interval time.Duration
	task     Task
}

// NewMaintenanceService creates a periodic service. interval defaults to
// ten minutes.
func NewMaintenanceService(name string, interval time.Duration, task Task) *MaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &MaintenanceService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service. The first pass runs one interval after
// start.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log := logging.WithComponent(m.name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := m.task(ctx); err != nil {
				log.Warn().Err(err).Msg("maintenance pass failed")
				continue
			}
			log.Debug().Dur("duration", time.Since(start)).Msg("maintenance pass complete")
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (m *MaintenanceService) String() string {
	return m.name
}
