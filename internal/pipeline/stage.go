// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
)

// ErrLakeIO marks a record that failed reading or writing the lake rather
// than on its content. Such failures may succeed when the event is
// delivered again.
var ErrLakeIO = errors.New("lake i/o failed")

// Artifact is one file a route emits for the next stage.
type Artifact struct {
	Name string
	Body []byte
}

// Output is everything a route produced for one object.
type Output struct {
	Artifacts []Artifact
	Records   models.WriteReport
}

// Handler formats or persists one fetched object.
type Handler func(ctx context.Context, key string, body []byte) (Output, error)

// Route binds a key pattern to a handler. Routes are tried in order and the
// first match wins.
type Route struct {
	Name   string
	Match  func(key string) bool
	Handle Handler
}

// Contains matches keys that contain substr anywhere.
func Contains(substr string) func(string) bool {
	return func(key string) bool { return strings.Contains(key, substr) }
}

// singleFile emits the formatted body under a fixed name.
func singleFile(name string, format func(context.Context, []byte) ([]byte, error)) Handler {
	return func(ctx context.Context, _ string, body []byte) (Output, error) {
		out, err := format(ctx, body)
		if err != nil {
			return Output{}, err
		}
		return Output{Artifacts: []Artifact{{Name: name, Body: out}}}, nil
	}
}

// sameName emits the formatted body under the source object's base name.
func sameName(format func(context.Context, []byte) ([]byte, error)) Handler {
	return func(ctx context.Context, key string, body []byte) (Output, error) {
		out, err := format(ctx, body)
		if err != nil {
			return Output{}, err
		}
		return Output{Artifacts: []Artifact{{Name: path.Base(key), Body: out}}}, nil
	}
}

// Stage consumes storage events for one key prefix.
type Stage struct {
	Name    models.Stage
	Routes  []Route
	Objects objectstore.Store

	// Next is where artifacts are written. Empty for the last stage.
	Next models.Stage

	// Timeout bounds one Process call. Zero means no bound beyond ctx.
	Timeout time.Duration

	// OnSummary, when set, receives every summary after Process returns.
	OnSummary func(context.Context, models.Summary)
}

// Process handles every record of n in order. A failing record is logged
// and reported in the summary; it never stops the remaining records.
func (s *Stage) Process(ctx context.Context, n models.Notification) models.Summary {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	summary := models.Summary{Stage: string(s.Name), StartedAt: time.Now().UTC()}
	for _, rec := range n.Records {
		result, report := s.processRecord(ctx, rec)
		summary.Add(result)
		summary.Records.Merge(report)
		metrics.RecordStageResult(string(s.Name), string(result.Outcome))
	}
	summary.Duration = time.Since(summary.StartedAt)
	metrics.RecordStageDuration(string(s.Name), summary.Duration)

	logging.Ctx(ctx).Info().
		Str("stage", string(s.Name)).
		Int("records", len(n.Records)).
		Int("written", summary.Written).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Stage invocation complete")

	if s.OnSummary != nil {
		s.OnSummary(ctx, summary)
	}
	return summary
}

// Run processes a single key as if a storage event had arrived for it.
func (s *Stage) Run(ctx context.Context, key string) models.Summary {
	return s.Process(ctx, models.NewObjectCreated("", key, 0, time.Now()))
}

func (s *Stage) processRecord(ctx context.Context, rec models.NotificationRecord) (models.Result, models.WriteReport) {
	key, err := rec.DecodedKey()
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("stage", string(s.Name)).Msg("Undecodable object key")
		return models.Failed(rec.S3.Object.Key, err), models.WriteReport{}
	}

	ctx = logging.WithObject(ctx, string(s.Name), key)
	log := logging.Ctx(ctx)

	if models.IsPlaceholderKey(key) {
		log.Debug().Msg("Ignoring placeholder object")
		return models.Skipped(key, "placeholder"), models.WriteReport{}
	}

	route, ok := s.route(key)
	if !ok {
		log.Info().Msg("Unsupported file, skipping")
		return models.Skipped(key, "unsupported file"), models.WriteReport{}
	}

	body, err := s.Objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			log.Warn().Msg("Object vanished before it was fetched")
			return models.Failed(key, fmt.Errorf("fetch %s: %w", key, err)), models.WriteReport{}
		}
		log.Error().Err(err).Msg("Failed to fetch object")
		return models.Failed(key, fmt.Errorf("fetch %s: %w: %w", key, ErrLakeIO, err)), models.WriteReport{}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		log.Info().Msg("No data found in the file")
		return models.Skipped(key, "empty body"), models.WriteReport{}
	}

	log.Info().Str("route", route.Name).Int("bytes", len(body)).Msg("Processing file")
	out, err := route.Handle(ctx, key, body)
	if err != nil {
		log.Error().Err(err).Str("route", route.Name).Msg("Error processing file")
		return models.Failed(key, err), out.Records
	}

	written := make([]string, 0, len(out.Artifacts))
	for _, a := range out.Artifacts {
		dest, err := s.emit(ctx, a)
		if err != nil {
			log.Error().Err(err).Str("artifact", a.Name).Msg("Failed to write artifact")
			return models.Failed(key, err), out.Records
		}
		written = append(written, dest)
	}
	return models.Written(key, written...), out.Records
}

func (s *Stage) route(key string) (Route, bool) {
	for _, r := range s.Routes {
		if r.Match(key) {
			return r, true
		}
	}
	return Route{}, false
}

func (s *Stage) emit(ctx context.Context, a Artifact) (string, error) {
	if s.Next == "" {
		return "", fmt.Errorf("stage %s has no next stage for artifact %s", s.Name, a.Name)
	}
	dest := s.Next.Key(a.Name)
	if err := s.Objects.Put(ctx, dest, a.Body); err != nil {
		return "", fmt.Errorf("write %s: %w: %w", dest, ErrLakeIO, err)
	}
	logging.Ctx(ctx).Info().Str("artifact", dest).Int("bytes", len(a.Body)).Msg("Uploaded artifact")
	return dest, nil
}
