// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package dynamostore is the DynamoDB backend of the curated record store.
//
// Table layout:
//
//	menus         partition item_id
//	ingredients   partition name, attribute count
//	users         partition user_id
//	interactions  partition item_id, sort user_id
//	              GSI user_id_index: partition user_id, sort created_at
//
// Menus are written with attribute_not_exists(item_id), so an existing menu
// is never modified. Ingredient counts use if_not_exists(#count, :zero) +
// :one. Batch writes issue one BatchWriteItem per call and hand unprocessed
// items back to the caller; the batch coordinator owns retries.
package dynamostore
