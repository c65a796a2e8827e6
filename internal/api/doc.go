// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package api serves the query API over the curated record store.

Routes live under /api/v1 and answer with models.APIResponse:

	GET  /menus?ids=a,b             batch lookup, or every menu without ids
	GET  /menus/search?search=q     top 5 by name or description
	GET  /ingredients               counts, most used first
	POST /menus/creator             {"ingredients": [...]} -> menu ideas
	POST /menus/image               {"description": "..."} -> {"image": base64}
	GET  /users?limit&after         keyset pages; after is the last user id seen
	GET  /users/count
	GET  /users/liked?itemIds=a,b
	GET  /interactions?user_id=|item_id=
	GET  /recommendations/popular
	GET  /recommendations/picks?user_id=
	GET  /lake/{stage}              objects in raw, formated or curated
	PUT  /lake/raw/{filename}       upload; the storage event starts the pipeline
	GET  /ws                        stage summaries as they complete
	GET  /health, /health/live, /health/ready

Prometheus metrics are served at /metrics.

# Middleware

Global: request id, RealIP, Recoverer and CORS (go-chi/cors). The API
group adds per-IP rate limiting (go-chi/httprate), security headers and
request metrics. Menu creation and image generation share a tenth of the
general rate budget.

# Caching

With API_CACHE_TTL above zero, /ingredients and the two recommendation
rankings are served from package cache. InvalidateOnSummary flushes them
when the curated stage writes records; the server registers it as a stage
observer.

# Errors

Failures on the interactive path answer with a code and a generic message:

	{"status":"error","error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}

Underlying errors are logged with the request id, never returned.
Request parameters are checked with go-playground/validator; the message
names the failing json field.
*/
package api
