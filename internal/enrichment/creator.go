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
	"time"

	"github.com/tomtom215/mealreco/internal/metrics"
)

// CreatorTemperature gives the menu creator some variety between calls.
const CreatorTemperature = 0.7

// ErrNoIngredients is returned when Create is called with nothing to cook.
var ErrNoIngredients = errors.New("enrichment: no ingredients provided")

// MenuIdea is one proposed menu.
type MenuIdea struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
}

const creatorPrompt = `Create 3 different menus using the provided ingredients.
Provide the menus in JSON format with the following structure:
[
  {
    "name": "Menu Name",
    "description": "Brief description of the menu",
    "ingredients": ["ingredient1", "ingredient2"]
  }
]
You don't have to use every ingredient provided. Skip any preamble and only give a valid JSON in your response. Here is the ingredient list:`

// MenuCreator proposes menus from a set of ingredients.
type MenuCreator struct {
	adapter *Adapter
}

// NewMenuCreator creates a menu creator.
func NewMenuCreator(adapter *Adapter) *MenuCreator {
	return &MenuCreator{adapter: adapter}
}

// Create asks the model for menu ideas. Unlike classification, errors are
// returned to the caller.
func (m *MenuCreator) Create(ctx context.Context, ingredients []string) ([]MenuIdea, error) {
	cleaned := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			cleaned = append(cleaned, ing)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoIngredients
	}

	start := time.Now()
	var ideas []MenuIdea
	err := m.adapter.Classify(ctx, creatorPrompt, strings.Join(cleaned, ", "), CreatorTemperature, &ideas)
	metrics.RecordEnrichmentCall("create_menu", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("create menus: %w", err)
	}
	return ideas, nil
}
