// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package app

import (
	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/curated"
	"github.com/tomtom215/mealreco/internal/enrichment"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/pipeline"
)

// Pipeline is the wired stage set plus the generation services the API
// exposes.
type Pipeline struct {
	// Lake raises a storage event for every write under a stage prefix.
	Lake   *objectstore.NotifyingStore
	Stages pipeline.Stages

	Creator *enrichment.MenuCreator
	// Images is nil when the provider has no image model.
	Images *enrichment.ImageGenerator
}

// NewPipeline wires the stages over b. Storage events go to publisher;
// with a nil publisher they are dispatched in process, synchronously.
func NewPipeline(cfg *config.Config, b *Backends, publisher objectstore.EventPublisher) (*Pipeline, error) {
	models, err := enrichment.NewModels(cfg.Enrichment, b.Bedrock)
	if err != nil {
		return nil, err
	}
	adapter := enrichment.NewAdapter(models.Text)

	var dispatcher *pipeline.Dispatcher
	if publisher == nil {
		dispatcher = &pipeline.Dispatcher{}
		publisher = dispatcher
	}

	lake := objectstore.NewNotifyingStore(b.Lake, cfg.Lake.Bucket, publisher)
	writer := curated.New(b.Store, curated.Options{
		BatchSize:     cfg.Pipeline.BatchSize,
		BatchAttempts: cfg.Pipeline.BatchAttempts,
		ScanPageSize:  cfg.Pipeline.ScanPageSize,
	})
	stages := pipeline.New(lake, enrichment.NewClassifier(adapter), writer, cfg.Pipeline)
	if dispatcher != nil {
		dispatcher.Stages = stages
	}

	p := &Pipeline{
		Lake:    lake,
		Stages:  stages,
		Creator: enrichment.NewMenuCreator(adapter),
	}
	if models.Image != nil {
		p.Images = enrichment.NewImageGenerator(models.Image)
	}
	return p, nil
}
