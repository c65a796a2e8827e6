// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package eventprocessor carries storage events between the lake stages
// over NATS JetStream using Watermill.
//
// # Flow
//
// Every object written under a stage prefix produces an S3-shaped storage
// event on that stage's subject:
//
//	data/raw/      -> lake.raw      -> raw stage
//	data/formated/ -> lake.formated -> formatted stage
//	data/curated/  -> lake.curated  -> curated stage
//
// A stage that writes artifacts triggers the next one only through those
// writes. Stages never call each other.
//
// # Components
//
//   - EmbeddedServer: in-process NATS with JetStream for single-node runs
//   - StreamInitializer: creates or updates the LAKE_EVENTS stream
//   - Publisher: objectstore.EventPublisher with a gobreaker circuit breaker
//   - NewSubscriber: one durable JetStream consumer per stage
//   - Router: Watermill router with poison queue, recoverer, retry and throttle
//   - Bus: owns all of the above for the server's lifetime
//
// # Delivery
//
// Message UUIDs are derived from the object key and event time, and double
// as Nats-Msg-Id, so a republished event inside the stream's duplicate
// window is dropped. A stage handler acknowledges an event once every
// record reached a final outcome; content failures (bad headers, missing
// columns) are final and only logged. Lake read or write failures and
// deadline overruns are returned so JetStream redelivers the event, up to
// the consumer's MaxDeliver. Only events that do not decode, and
// invocations that panicked, go to the poison topic (lake.poison by
// default).
//
// # Local Mode
//
// When NATS is disabled the server uses pipeline.Dispatcher instead, which
// runs the stages synchronously inside the write that triggered them.
package eventprocessor
