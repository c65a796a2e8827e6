// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package supervisor runs mealreco's long-lived services under a suture v4
supervisor tree.

	mealreco
	├── data-layer
	│   ├── badger-gc          (LAKE_BACKEND=badger)
	│   └── duckdb-checkpoint  (STORE_BACKEND=duckdb)
	├── messaging-layer
	│   ├── event-bus          (NATS_ENABLED=true)
	│   └── websocket-hub
	└── api-layer
	    └── query-api

Each layer counts failures independently. A bus that cannot reach NATS
backs off inside the messaging layer while the API keeps serving curated
records.

# Configuration

TreeConfig comes from the supervisor section of the loaded config:

	tree, err := supervisor.NewSupervisorTree(
	    logging.NewSlogLogger(),
	    supervisor.TreeConfigFrom(cfg.Supervisor),
	)

Zero values take suture's defaults: threshold 5, decay 30s, backoff 15s
and a 10s per-service shutdown timeout.

# Service contract

  - return ctx.Err() when the context is canceled
  - return an error to be restarted
  - return nil only when the service has nothing left to do

Supervisor events are logged through sutureslog into the same zerolog
output as the rest of the process.

# Shutdown

Canceling the Serve context stops the layers. Services that outlive the
timeout appear in UnstoppedServiceReport, which the server logs on exit.
*/
package supervisor
