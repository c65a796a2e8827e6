// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/pipeline"
	"github.com/tomtom215/mealreco/internal/tabular"
)

type processorFunc func(context.Context, models.Notification) models.Summary

func (f processorFunc) Process(ctx context.Context, n models.Notification) models.Summary {
	return f(ctx, n)
}

func eventMessage(t *testing.T, key, correlationID string) *message.Message {
	t.Helper()
	msg, err := EncodeNotification(models.NewObjectCreated("mealreco", key, 1, time.Now()), correlationID)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestStageHandlerOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		result    models.Result
		wantRetry bool
	}{
		{"written", models.Written("k", "data/formated/k"), false},
		{"skipped", models.Skipped("k", "placeholder"), false},
		{"config error", models.Failed("k", &tabular.ConfigError{Schema: "ratings", Column: "rating"}), false},
		{"object gone", models.Failed("k", fmt.Errorf("fetch k: %w", objectstore.ErrObjectNotFound)), false},
		{"lake read", models.Failed("k", fmt.Errorf("fetch k: %w: %w", pipeline.ErrLakeIO, errors.New("timeout"))), true},
		{"deadline", models.Failed("k", context.DeadlineExceeded), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seenCorrelation string
			h := StageHandler(models.StageRaw, processorFunc(func(ctx context.Context, _ models.Notification) models.Summary {
				seenCorrelation = logging.CorrelationIDFromContext(ctx)
				var s models.Summary
				s.Add(tt.result)
				return s
			}))

			err := h(eventMessage(t, "data/raw/k", "corr-1"))
			if (err != nil) != tt.wantRetry {
				t.Errorf("err = %v, want retry %v", err, tt.wantRetry)
			}
			if seenCorrelation != "corr-1" {
				t.Errorf("correlation id = %q", seenCorrelation)
			}
		})
	}
}

func TestStageHandlerMalformed(t *testing.T) {
	t.Parallel()

	called := false
	h := StageHandler(models.StageRaw, processorFunc(func(context.Context, models.Notification) models.Summary {
		called = true
		return models.Summary{}
	}))
	err := h(message.NewMessage("1", []byte("garbage")))
	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("err = %v, want ErrMalformedEvent", err)
	}
	if called {
		t.Error("stage ran for an undecodable event")
	}
}

func TestStageHandlerGeneratesCorrelationID(t *testing.T) {
	t.Parallel()

	var id string
	h := StageHandler(models.StageCurated, processorFunc(func(ctx context.Context, _ models.Notification) models.Summary {
		id = logging.CorrelationIDFromContext(ctx)
		return models.Summary{}
	}))
	if err := h(eventMessage(t, "data/curated/users.csv", "")); err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Error("expected a generated correlation id")
	}
}
