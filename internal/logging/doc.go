// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

// Package logging provides the process-wide zerolog logger for Mealreco.
//
// Every package logs through the helpers here rather than holding its own
// logger, so one Init call at startup controls level and format everywhere.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Msg("server starting")
//
// Pipeline code tags the context with the stage and the object key once,
// then logs through Ctx:
//
//	ctx = logging.WithObject(ctx, "formated", key)
//	logging.Ctx(ctx).Warn().Err(err).Msg("classification failed")
//
// # Configuration
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// # Bridges
//
// NewSlogLogger returns a *slog.Logger writing to the same zerolog stream.
// It feeds sutureslog (supervisor events) and watermill (router events).
package logging
