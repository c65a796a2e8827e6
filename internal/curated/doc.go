// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package curated persists curated rows into the record store.
//
// Menus are written once per item id and every ingredient token they carry
// is counted, duplicates included. Users are upserted after in-file
// deduplication. Interactions are first resolved to canonical menu ids
// through a ReconciliationIndex built from a full menu scan, then collapsed
// to the newest row per (user, item) pair. User and interaction writes go
// through the batch coordinator; the returned models.WriteReport carries
// what was written, skipped, dropped and left unresolved.
package curated
