// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package services adapts long-running mealreco components to suture's
Serve(ctx) error contract.

  - HTTPServerService: ListenAndServe plus graceful Shutdown (api layer)
  - EventBusService: Start/Shutdown of the NATS stage router (messaging layer)
  - MaintenanceService: a periodic task such as badger value-log GC or a
    DuckDB checkpoint (data layer)

The websocket hub implements Serve itself and needs no wrapper.

Every service returns ctx.Err() on a requested stop and a wrapped error on
failure, which suture answers with a restart.
*/
package services
