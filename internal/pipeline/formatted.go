// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mealreco/internal/enrichment"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/tabular"
)

// MealClassifier labels one meal. Implementations never fail; an
// unlabeled meal comes back as the zero Classification.
type MealClassifier interface {
	ClassifyMeal(ctx context.Context, meal, ingredients string) enrichment.Classification
}

// CuratedMenuHeader is the header of curated/menus.csv.
var CuratedMenuHeader = []string{
	"ITEM_ID", "PRICE", "CREATION_TIMESTAMP", "NAME", "GENRES", "GENRE_L2", "GENRE_L3",
	"PRODUCT_DESCRIPTION", "CONTENT_CLASSIFICATION", "OTHER_ITEM_IDS",
}

// CuratedUserHeader is the header of curated/users.csv.
var CuratedUserHeader = []string{"USER_ID", "INTERESTS", "SHIPPING_CITY", "SHIPPING_STATE", "LOCALE", "CREATED_AT"}

var formattedMenusSchema = tabular.Schema{Name: "formatted menus", Columns: []tabular.Column{
	{Source: "ITEM_ID", Target: "ITEM_ID", Required: true},
	{Source: "CREATION_TIMESTAMP", Target: "CREATION_TIMESTAMP"},
	{Source: "Meal", Target: "Meal", Required: true},
	{Source: "FoodCost", Target: "FoodCost", Required: true},
	{Source: "LaborCost", Target: "LaborCost", Required: true},
	{Source: "Ingredients", Target: "Ingredients", Required: true},
	{Source: OtherItemIDsColumn, Target: OtherItemIDsColumn},
}}

var formattedUsersSchema = tabular.Schema{Name: "formatted users", Columns: []tabular.Column{
	{Source: "user_id", Target: "user_id", Required: true},
	{Source: "shipping_city", Target: "shipping_city"},
	{Source: "shipping_state", Target: "shipping_state"},
	{Source: "locale", Target: "locale"},
	{Source: "created_at", Target: "created_at"},
	{Source: "vegetable_side_dish", Target: "vegetable_side_dish"},
	{Source: "grandpa", Target: "grandpa"},
	{Source: "subscribed", Target: "subscribed"},
	{Source: "show_meats", Target: "show_meats"},
}}

// interestFlags are the user columns that add a tag to INTERESTS when "1".
var interestFlags = []struct{ column, tag string }{
	{"vegetable_side_dish", "vegetable"},
	{"grandpa", "grandpa"},
	{"subscribed", "subscribed"},
	{"show_meats", "show_meats"},
}

var interactionSchema = tabular.Schema{Name: "interactions", Columns: []tabular.Column{
	{Source: "USER_ID", Target: "USER_ID", Required: true},
	{Source: "ITEM_ID", Target: "ITEM_ID", Required: true},
	{Source: "EVENT_TYPE", Target: "EVENT_TYPE", Required: true},
	{Source: "EVENT_VALUE", Target: "EVENT_VALUE", Required: true},
	{Source: "TIMESTAMP", Target: "TIMESTAMP", Required: true},
	{Source: "LIKED", Target: "LIKED", Required: true},
}}

// NewFormattedStage enriches formatted files into the curated prefix.
// concurrency caps in-flight classifications; zero means no cap.
func NewFormattedStage(objects objectstore.Store, classifier MealClassifier, concurrency int) *Stage {
	m := &menuEnricher{classifier: classifier, concurrency: concurrency}
	return &Stage{
		Name:    models.StageFormated,
		Next:    models.StageCurated,
		Objects: objects,
		Routes: []Route{
			{Name: "menus", Match: Contains(MenusFile), Handle: singleFile(MenusFile, m.Enrich)},
			{Name: "users", Match: Contains(UsersFile), Handle: singleFile(UsersFile, CurateUsers)},
			{Name: "ratings", Match: Contains("rating"), Handle: sameName(NormalizeInteractions)},
		},
	}
}

type menuEnricher struct {
	classifier  MealClassifier
	concurrency int
}

// Enrich classifies every menu row and writes the curated menu file. All
// classifications run concurrently and are awaited before the file is
// built, so output order follows input order.
func (m *menuEnricher) Enrich(ctx context.Context, body []byte) ([]byte, error) {
	header, seq, err := tabular.Split(body, tabular.Tab)
	if err != nil {
		return nil, fmt.Errorf("menus: %w", err)
	}
	b, err := formattedMenusSchema.Bind(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, row := range seq {
		rows = append(rows, b.Project(row))
	}

	labels := make([]enrichment.Classification, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	if m.concurrency > 0 {
		g.SetLimit(m.concurrency)
	}
	for i, p := range rows {
		g.Go(func() error {
			labels[i] = m.classifier.ClassifyMeal(gctx, b.Value(p, "Meal"), b.Value(p, "Ingredients"))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := tabular.NewWriter(tabular.Comma, CuratedMenuHeader)
	if err != nil {
		return nil, err
	}
	unlabeled := 0
	for i, p := range rows {
		c := labels[i]
		if c.ContentClassification == "" {
			unlabeled++
		}
		name := b.Value(p, "Meal")
		if name == "" {
			name = " "
		}
		name = strings.ReplaceAll(name, ",", " ")

		err := w.Write([]string{
			b.Value(p, "ITEM_ID"),
			price(b.Value(p, "FoodCost"), b.Value(p, "LaborCost")),
			numeric(b.Value(p, "CREATION_TIMESTAMP")),
			name,
			c.Genres,
			c.GenreL2,
			c.GenreL3,
			description(name, c.Other),
			c.ContentClassification,
			b.Value(p, OtherItemIDsColumn),
		})
		if err != nil {
			return nil, err
		}
	}

	logging.Ctx(ctx).Info().Int("menus", len(rows)).Int("unlabeled", unlabeled).Msg("Enriched menus")
	return w.Bytes()
}

// price sums food and labor cost with two decimals. Missing or non-numeric
// costs count as zero.
func price(food, labor string) string {
	return strconv.FormatFloat(number(food)+number(labor), 'f', 2, 64)
}

func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// numeric returns s when it is a number and "" otherwise.
func numeric(s string) string {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return ""
	}
	return s
}

// description is the meal name followed by its other base ingredients,
// separated by |. Commas become spaces.
func description(name string, other []string) string {
	parts := make([]string, 0, len(other)+1)
	parts = append(parts, name)
	for _, o := range other {
		if o = strings.TrimSpace(o); o != "" {
			parts = append(parts, o)
		}
	}
	return strings.ReplaceAll(models.JoinIDs(parts), ",", " ")
}

// CurateUsers builds the curated users file with its INTERESTS tags.
func CurateUsers(_ context.Context, body []byte) ([]byte, error) {
	header, rows, err := tabular.Split(body, tabular.Tab)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	b, err := formattedUsersSchema.Bind(header)
	if err != nil {
		return nil, err
	}
	w, err := tabular.NewWriter(tabular.Comma, CuratedUserHeader)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		p := b.Project(row)
		city, state, locale := b.Value(p, "shipping_city"), b.Value(p, "shipping_state"), b.Value(p, "locale")
		interests := []string{city, state, locale}
		for _, f := range interestFlags {
			if b.Value(p, f.column) == "1" {
				interests = append(interests, f.tag)
			}
		}
		err := w.Write([]string{
			b.Value(p, "user_id"),
			strings.Join(interests, "|"),
			city,
			state,
			locale,
			b.Value(p, "created_at"),
		})
		if err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}

// NormalizeInteractions re-emits an interaction file with the canonical
// header and column order.
func NormalizeInteractions(_ context.Context, body []byte) ([]byte, error) {
	header, rows, err := tabular.Split(body, tabular.Comma)
	if err != nil {
		return nil, fmt.Errorf("interactions: %w", err)
	}
	b, err := interactionSchema.Bind(header)
	if err != nil {
		return nil, err
	}
	w, err := tabular.NewWriter(tabular.Comma, InteractionHeader)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(b.Project(row)); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}
