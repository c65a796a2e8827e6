// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"fmt"
	"math"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
)

// GuardConfig tunes a GuardedTextModel.
type GuardConfig struct {
	Name string
	// RatePerSecond caps call rate; zero disables the limiter.
	RatePerSecond float64
	// MaxFailures is the consecutive failure count that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// CallTimeout bounds each call; zero leaves the caller's deadline alone.
	CallTimeout time.Duration
}

// GuardedTextModel protects a TextModel from overload. Calls wait on the
// limiter, then pass through the circuit breaker; an open breaker fails
// fast with gobreaker.ErrOpenState.
type GuardedTextModel struct {
	next    TextModel
	breaker *gobreaker.CircuitBreaker[string]
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGuardedTextModel wraps next.
func NewGuardedTextModel(next TextModel, cfg GuardConfig) *GuardedTextModel {
	if cfg.Name == "" {
		cfg.Name = "enrichment"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Enrichment circuit breaker changed state")
		},
	}

	g := &GuardedTextModel{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		timeout: cfg.CallTimeout,
	}
	if cfg.RatePerSecond > 0 {
		burst := int(math.Max(1, math.Ceil(cfg.RatePerSecond)))
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return g
}

// Generate implements TextModel.
func (g *GuardedTextModel) Generate(ctx context.Context, p Prompt) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.breaker.Execute(func() (string, error) {
		return g.next.Generate(ctx, p)
	})
}

// State reports the breaker state for health checks.
func (g *GuardedTextModel) State() string {
	return g.breaker.State().String()
}
