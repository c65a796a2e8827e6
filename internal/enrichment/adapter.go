// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNoJSON is returned when a completion is empty.
var ErrNoJSON = errors.New("enrichment: response contains no JSON value")

// Adapter turns completions into typed values. The answer must be a single
// JSON value; surrounding prose or code fences make it a parse failure.
type Adapter struct {
	model TextModel
}

// NewAdapter creates an adapter over model.
func NewAdapter(model TextModel) *Adapter {
	return &Adapter{model: model}
}

// Classify sends prompt and dataset at the given temperature and decodes
// the answer into out.
func (a *Adapter) Classify(ctx context.Context, prompt, dataset string, temperature float64, out any) error {
	text, err := a.model.Generate(ctx, Prompt{
		Instruction: prompt,
		Dataset:     dataset,
		Temperature: temperature,
	})
	if err != nil {
		return err
	}

	raw := strings.TrimSpace(text)
	if raw == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model answer: %w", err)
	}
	return nil
}
