// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package websocket streams pipeline stage summaries to connected operators.

Every stage invocation ends with a models.Summary. Hub.BroadcastSummary has
the same signature as a pipeline observer, so the server wires it with

	stages.Observe(hub.BroadcastSummary)

and every connected client receives a stage_summary message:

	{"type":"stage_summary","data":{"stage":"formated","written":1,...}}

Clients may send {"type":"ping"} and receive {"type":"pong"}.

The hub runs as a supervised service (Hub.Serve). Each client has a read
goroutine that answers pings and a write goroutine that drains its buffered
send channel. A client whose buffer fills is dropped rather than stalling
the broadcast loop, and a full broadcast buffer drops the summary with a
warning. Summaries are informational; the lake and the record store remain
the source of truth.
*/
package websocket
