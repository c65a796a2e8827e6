// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package main is the entry point for the Mealreco server.

Mealreco ingests meal-kit exports (menus workbooks, user and interaction
CSVs) into a staged data lake, enriches menus with a language model, loads
the curated records into a record store and serves recommendation queries
over HTTP.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("mealreco")
	├── DataSupervisor ("data-layer")
	│   ├── badger-gc (lake backend badger)
	│   └── duckdb-checkpoint (store backend duckdb)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (stage summaries)
	│   └── event-bus (NATS_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Backends: lake (badger, s3, memory), record store (duckdb, dynamodb,
    memory) and the Bedrock client when enrichment uses it
 4. Event bus: JetStream with one durable consumer per stage (optional)
 5. Pipeline: raw, formatted and curated stages over the notifying lake
 6. HTTP Server: Chi router with middleware stack

# Event Dispatch

With NATS disabled every write under a stage prefix runs the next stage
synchronously, inside the request that made the write. With NATS enabled
the write publishes a storage event and the stage consumers run it.

# Signal Handling

The server shuts down gracefully on SIGINT and SIGTERM. Services that miss
the supervisor shutdown timeout are reported before exit.
*/
package main
