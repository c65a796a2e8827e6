// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/middleware"
)

func TestRouter_GlobalHeaders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, config.APIConfig{})

	w, _ := env.do(t, http.MethodGet, "/api/v1/users/count", nil)
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should only be sent over https")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, config.APIConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	for i := range 2 {
		if w, _ := env.do(t, http.MethodGet, "/api/v1/ingredients", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w, resp := env.do(t, http.MethodGet, "/api/v1/ingredients", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != CodeRateLimited {
		t.Errorf("error = %+v", resp.Error)
	}

	// Health probes have their own budget.
	if w, _ := env.do(t, http.MethodGet, "/api/v1/health/live", nil); w.Code != http.StatusOK {
		t.Errorf("live: status = %d", w.Code)
	}
}

func TestChiMiddleware_GenerationBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		requests int
		want     int
	}{
		{100, 10},
		{5, 1},
	}
	for _, tt := range tests {
		m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: tt.requests, RateLimitWindow: time.Minute})
		h := m.RateLimitGeneration()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		allowed := 0
		for range tt.want + 1 {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
			if w.Code == http.StatusNoContent {
				allowed++
			}
		}
		if allowed != tt.want {
			t.Errorf("budget for %d = %d, want %d", tt.requests, allowed, tt.want)
		}
	}
}

func TestChiMiddlewareConfigFrom(t *testing.T) {
	t.Parallel()

	got := ChiMiddlewareConfigFrom(config.APIConfig{
		CORSOrigins:       []string{"https://menu.example"},
		RateLimitRequests: 7,
	})
	if len(got.CORSAllowedOrigins) != 1 || got.RateLimitRequests != 7 {
		t.Errorf("config = %+v", got)
	}
	if got.RateLimitWindow != time.Minute {
		t.Errorf("window = %v, want default", got.RateLimitWindow)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		failing    bool
		path       string
		wantStatus int
		wantState  string
	}{
		{"live ignores dependencies", true, "/api/v1/health/live", http.StatusOK, "alive"},
		{"ready", false, "/api/v1/health/ready", http.StatusOK, "ready"},
		{"not ready", true, "/api/v1/health/ready", http.StatusServiceUnavailable, "not_ready"},
		{"healthy", false, "/api/v1/health/", http.StatusOK, "healthy"},
		{"degraded", true, "/api/v1/health/", http.StatusOK, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, config.APIConfig{})
			env.handler.AddHealthCheck("event-bus", func(context.Context) error {
				if tt.failing {
					return errors.New("nats: no servers available")
				}
				return nil
			})

			w, resp := env.do(t, http.MethodGet, tt.path, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			hs := decodeData[HealthStatus](t, resp)
			if hs.Status != tt.wantState {
				t.Errorf("state = %q, want %q", hs.Status, tt.wantState)
			}
			if tt.path != "/api/v1/health/live" {
				if hs.Dependencies["store"] != "ok" {
					t.Errorf("store = %q", hs.Dependencies["store"])
				}
				wantBus := "ok"
				if tt.failing {
					wantBus = "unavailable"
				}
				if hs.Dependencies["event-bus"] != wantBus {
					t.Errorf("event-bus = %q, want %q", hs.Dependencies["event-bus"], wantBus)
				}
			}
			if strings.Contains(w.Body.String(), "no servers available") {
				t.Error("dependency error leaked")
			}
		})
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"missing origin", []string{"*"}, "", false},
		{"wildcard", []string{"*"}, "https://any.example", true},
		{"listed", []string{"https://menu.example"}, "https://menu.example", true},
		{"unlisted", []string{"https://menu.example"}, "https://evil.example", false},
		{"no origins configured", nil, "https://menu.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := &Handler{config: config.APIConfig{CORSOrigins: tt.allowed}}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket_NoHub(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, config.APIConfig{})

	w, resp := env.do(t, http.MethodGet, "/api/v1/ws", nil)
	if w.Code != http.StatusServiceUnavailable || resp.Error == nil || resp.Error.Code != CodeUnavailable {
		t.Errorf("status = %d, error = %+v", w.Code, resp.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, config.APIConfig{})

	env.do(t, http.MethodGet, "/api/v1/ingredients", nil)

	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `endpoint="/api/v1/ingredients"`) {
		t.Error("request metrics should be labeled with the route pattern")
	}
}

func TestValidateRequest_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  interface{}
		want string
	}{
		{"required", &MenuImageRequest{}, "description is required"},
		{"string max", &MenuSearchRequest{Search: strings.Repeat("a", 201)}, "search must be at most 200 characters"},
		{"list max", &IDListRequest{IDs: make([]string, 101)}, "ids must have at most 100 entries"},
		{"forbidden character", &UploadRequest{Filename: `a\b.csv`}, "filename contains a forbidden character"},
		{"forbidden sequence", &UploadRequest{Filename: "..csv"}, "filename contains a forbidden sequence"},
		{"valid", &UploadRequest{Filename: "menus.xlsx"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			apiErr := validateRequest(tt.req)
			if tt.want == "" {
				if apiErr != nil {
					t.Errorf("unexpected error: %+v", apiErr)
				}
				return
			}
			if apiErr == nil || apiErr.Message != tt.want || apiErr.Code != CodeValidation {
				t.Errorf("error = %+v, want %q", apiErr, tt.want)
			}
		})
	}
}
