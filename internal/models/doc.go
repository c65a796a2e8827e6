// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package models defines the data shared by the pipeline stages, the store
backends and the query API.

Record Types:

  - MenuRecord, IngredientRecord, UserRecord, InteractionRecord: the four
    curated entities persisted by the curated writer
  - MenuRow, UserRow, InteractionRow: typed rows bound from curated files

Lake Events:

  - Notification: S3-shaped storage event batch published when an object
    lands under a stage prefix

Processing Results:

  - Result: outcome of one notification record (written, skipped, failed)
  - WriteReport: per-row counters from the curated writer
  - Summary: everything one stage invocation did

API Types:

  - APIResponse, APIError, Metadata: the JSON envelope of the query API
*/
package models
