// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
)

// Classification labels one meal. Genres, GenreL2 and GenreL3 are the
// protein, starch and vegetable base ingredients; ContentClassification is
// the cuisine; Other lists the remaining base ingredients.
type Classification struct {
	Genres                string
	GenreL2               string
	GenreL3               string
	ContentClassification string
	Other                 []string
}

// mealLabels is the JSON shape the classification prompt asks for.
type mealLabels struct {
	CuisineType         string   `json:"cuisine_type"`
	PrimaryIngredient   string   `json:"primary_ingredient"`
	SecondaryIngredient string   `json:"secondary_ingredient"`
	ThirdIngredient     string   `json:"third_ingredient"`
	OtherIngredients    []string `json:"other_ingredients"`
}

const classifyPrompt = `Act as a cooking chef that needs to extract menu information in a structured JSON.
I am providing you with a list of ingredients from a meal named <meal>%s</meal> : <ingredients>%s</ingredients>.
Your task is to generate a JSON with this structure : {"cuisine_type":"","primary_ingredient":"","secondary_ingredient":"","third_ingredient":"","other_ingredients":[]}.
Every ingredient in the list needs to be reduced to its base name. For example "yukon potatoes" becomes "potato" and "Fried pork" becomes "pork".
The "cuisine_type" is the type of cuisine (mexican, greek, chinese, fast-food, healthy, korean, indian or any other) based on the meal name and ingredients.
The "primary_ingredient" is the ingredient from the protein food group: beans, pulses, fish, eggs, meat and other proteins.
The "secondary_ingredient" is the main ingredient from the grains food group: potatoes, bread, rice, pasta, fries and other starchy carbohydrates.
The "third_ingredient" is the main ingredient from the vegetables food group: fruit, vegetables or spice.
The "other_ingredients" is a list of every other ingredient (spices, dairy, fruits) in base form.
Skip any preamble and only give a valid JSON in your response.`

// Classifier labels menu rows during the formatted stage.
type Classifier struct {
	adapter *Adapter
}

// NewClassifier creates a classifier.
func NewClassifier(adapter *Adapter) *Classifier {
	return &Classifier{adapter: adapter}
}

// ClassifyMeal labels one meal at temperature zero. Any failure is logged
// and counted, and the zero Classification is returned so the row is still
// written.
func (c *Classifier) ClassifyMeal(ctx context.Context, meal, ingredients string) Classification {
	start := time.Now()
	var labels mealLabels
	err := c.adapter.Classify(ctx, fmt.Sprintf(classifyPrompt, meal, ingredients), ingredients, 0, &labels)
	metrics.RecordEnrichmentCall("classify", time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("meal", meal).Msg("Meal classification failed, writing row unlabeled")
		return Classification{}
	}

	return Classification{
		Genres:                strings.TrimSpace(labels.PrimaryIngredient),
		GenreL2:               strings.TrimSpace(labels.SecondaryIngredient),
		GenreL3:               strings.TrimSpace(labels.ThirdIngredient),
		ContentClassification: strings.TrimSpace(labels.CuisineType),
		Other:                 labels.OtherIngredients,
	}
}
