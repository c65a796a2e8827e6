// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// HealthStatus is the data of the health endpoints.
type HealthStatus struct {
	Status       string            `json:"status"`
	Uptime       float64           `json:"uptime_seconds"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	WSClients    int               `json:"ws_clients"`
}

// Health handles GET /health. It always answers 200 and reports
// "degraded" when a dependency check fails.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	deps, ok := h.runChecks(r.Context())
	status := "healthy"
	if !ok {
		status = "degraded"
	}
	respondSuccess(w, http.StatusOK, h.healthStatus(status, deps), 0, start)
}

// HealthLive handles the liveness probe. It answers 200 while the process
// can serve requests, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, h.healthStatus("alive", nil), 0, time.Now())
}

// HealthReady handles the readiness probe: 503 until every dependency
// check passes.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	deps, ok := h.runChecks(r.Context())
	if !ok {
		respondSuccess(w, http.StatusServiceUnavailable, h.healthStatus("not_ready", deps), 0, start)
		return
	}
	respondSuccess(w, http.StatusOK, h.healthStatus("ready", deps), 0, start)
}

func (h *Handler) healthStatus(status string, deps map[string]string) HealthStatus {
	hs := HealthStatus{
		Status:       status,
		Uptime:       time.Since(h.startTime).Seconds(),
		Dependencies: deps,
	}
	if h.hub != nil {
		hs.WSClients = h.hub.GetClientCount()
	}
	return hs
}

func (h *Handler) runChecks(ctx context.Context) (map[string]string, bool) {
	deps := make(map[string]string, len(h.checks))
	ok := true
	for _, c := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		err := c.Check(checkCtx)
		cancel()
		if err != nil {
			deps[c.Name] = "unavailable"
			ok = false
			continue
		}
		deps[c.Name] = "ok"
	}
	return deps, ok
}
