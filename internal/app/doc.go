// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package app builds the lake, the record store, the model clients and the
// stage set from configuration. The server and lakectl share it.
package app
