// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package config loads Mealreco configuration with Koanf v2.
//
// Sources are layered, later ones winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: CONFIG_PATH, else config.yaml in the working
//     directory, else /etc/mealreco/config.yaml
//  3. Environment variables, through an explicit name mapping
//
// Each section struct documents the environment variables it reads.
// Validate runs the validator/v10 struct tags first and then cross-field
// checks whose messages name the environment variable to fix.
//
// Example config.yaml for local development:
//
//	lake:
//	  backend: badger
//	  badger_dir: ./data/lake
//	store:
//	  backend: duckdb
//	  duckdb_path: ./data/mealreco.duckdb
//	nats:
//	  store_dir: ./data/nats
//	enrichment:
//	  provider: none
package config
