// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package pipeline

import (
	"context"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
)

// Stages bundles the three stage orchestrators.
type Stages struct {
	Raw       *Stage
	Formatted *Stage
	Curated   *Stage
}

// New builds every stage over one object store. Artifacts written through
// objects trigger the next stage only if objects publishes storage events.
func New(objects objectstore.Store, classifier MealClassifier, writer RecordWriter, cfg config.PipelineConfig) Stages {
	s := Stages{
		Raw:       NewRawStage(objects),
		Formatted: NewFormattedStage(objects, classifier, cfg.EnrichmentConcurrency),
		Curated:   NewCuratedStage(objects, writer),
	}
	for _, st := range s.All() {
		st.Timeout = cfg.InvocationTimeout
	}
	return s
}

// All returns the stages in pipeline order.
func (s Stages) All() []*Stage {
	return []*Stage{s.Raw, s.Formatted, s.Curated}
}

// For returns the stage named name.
func (s Stages) For(name models.Stage) (*Stage, bool) {
	for _, st := range s.All() {
		if st != nil && st.Name == name {
			return st, true
		}
	}
	return nil, false
}

// Observe registers fn to receive every stage summary. Observers run in
// registration order.
func (s Stages) Observe(fn func(context.Context, models.Summary)) {
	for _, st := range s.All() {
		prev := st.OnSummary
		if prev == nil {
			st.OnSummary = fn
			continue
		}
		st.OnSummary = func(ctx context.Context, sum models.Summary) {
			prev(ctx, sum)
			fn(ctx, sum)
		}
	}
}
