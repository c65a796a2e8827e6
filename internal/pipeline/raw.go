// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package pipeline

import (
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tomtom215/mealreco/internal/dates"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/tabular"
)

// Formatted artifact names.
const (
	MenusFile         = "menus.csv"
	UsersFile         = "users.csv"
	RatingsFile       = "ratings.csv"
	RatingsChoiceFile = "ratings_choice.csv"
)

// Workbook sheets the raw stage understands.
const (
	SheetMenus   = "menus"
	SheetUsers   = "users"
	SheetRatings = "meal_customer ratings"
	SheetChoices = "user_choices"
)

// InteractionHeader is the header of every interaction file.
var InteractionHeader = []string{"USER_ID", "ITEM_ID", "EVENT_TYPE", "EVENT_VALUE", "TIMESTAMP", "LIKED"}

var ratingsSchema = tabular.Schema{Name: "ratings", Columns: []tabular.Column{
	{Source: "user_id", Target: "user_id", Required: true},
	{Source: "menu_item_id", Target: "menu_item_id", Required: true},
	{Source: "rating", Target: "rating", Required: true},
	{Source: "date", Target: "date", Required: true},
}}

var choicesSchema = tabular.Schema{Name: "choices", Columns: []tabular.Column{
	{Source: "user_id", Target: "user_id", Required: true},
	{Source: "menu_item_id", Target: "menu_item_id", Required: true},
	{Source: "manual", Target: "manual", Required: true},
	{Source: "created_at", Target: "created_at", Required: true},
}}

// rawUsersSchema keeps the ten canonical user columns that are present.
// Everything else in the export, preference flags included, is dropped.
var rawUsersSchema = tabular.Schema{Name: "users", Columns: []tabular.Column{
	{Source: "user_id", Target: "user_id", Required: true},
	{Source: "deleted_at", Target: "deleted_at"},
	{Source: "shipping_city", Target: "shipping_city"},
	{Source: "shipping_state", Target: "shipping_state"},
	{Source: "grandpa", Target: "grandpa"},
	{Source: "subscribed", Target: "subscribed"},
	{Source: "locale", Target: "locale"},
	{Source: "last_login_at", Target: "last_login_at", Date: true},
	{Source: "created_at", Target: "created_at", Date: true},
	{Source: "subscribed_at", Target: "subscribed_at", Date: true},
}}

var rawMenusSchema = tabular.Schema{Name: "menus", Columns: []tabular.Column{
	{Source: "Menu ID", Target: "menu_id"},
	{Source: "Menu Start Date", Target: "CREATION_TIMESTAMP", Date: true},
	{Source: "Item Id", Target: "ITEM_ID", Required: true},
	{Source: "Meal Id", Target: "meal_id"},
	{Source: "Meal(En)", Target: "Meal", Required: true},
	{Source: "Ingredients(En)", Target: "Ingredients"},
	{Source: "Allergens Contains(En)", Target: "AllergensContains"},
	{Source: "Allergens May Contains(En)", Target: "AllergensMayContains"},
	{Source: "Spicy", Target: "Spicy"},
	{Source: "gluten_free", Target: "gluten_free"},
	{Source: "Food Cost", Target: "FoodCost"},
	{Source: "Labor Cost", Target: "LaborCost"},
}}

// OtherItemIDsColumn carries every item id that shares a meal name.
const OtherItemIDsColumn = "otherItemIds"

type dateParser func(string) (int64, error)

// NewRawStage formats uploaded exports into the formated prefix.
func NewRawStage(objects objectstore.Store) *Stage {
	return &Stage{
		Name:    models.StageRaw,
		Next:    models.StageFormated,
		Objects: objects,
		Routes: []Route{
			{Name: "ratings", Match: Contains("rating"), Handle: singleFile(RatingsFile, FormatRatings)},
			{Name: "choices", Match: Contains("choice"), Handle: singleFile(RatingsChoiceFile, FormatChoices)},
			{Name: "users", Match: Contains("users"), Handle: singleFile(UsersFile, FormatUsers)},
			{Name: "workbook", Match: Contains("xlsx"), Handle: FormatWorkbook},
		},
	}
}

// FormatRatings converts a meal rating export into interactions. A rating
// of r becomes a Watch event worth r*20, liked when r is above 3.
func FormatRatings(ctx context.Context, body []byte) ([]byte, error) {
	header, rows, err := tabular.Split(body, tabular.Comma)
	if err != nil {
		return nil, fmt.Errorf("ratings: %w", err)
	}
	w, err := tabular.NewWriter(tabular.Comma, InteractionHeader)
	if err != nil {
		return nil, err
	}
	if err := appendRatings(ctx, w, header, rows, dates.ParseToUnix); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// FormatChoices converts a user choice export into Click interactions.
// Only manual choices are kept.
func FormatChoices(ctx context.Context, body []byte) ([]byte, error) {
	header, rows, err := tabular.Split(body, tabular.Comma)
	if err != nil {
		return nil, fmt.Errorf("choices: %w", err)
	}
	w, err := tabular.NewWriter(tabular.Comma, InteractionHeader)
	if err != nil {
		return nil, err
	}
	if err := appendChoices(ctx, w, header, rows, dates.ParseToUnix); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// FormatUsers keeps the user export columns, converts the date columns to
// unix seconds and re-emits the file tab-delimited.
func FormatUsers(ctx context.Context, body []byte) ([]byte, error) {
	header, rows, err := tabular.Split(body, tabular.Comma, tabular.StripQuotedCommas())
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	return formatUserRows(ctx, header, rows, dates.ParseToUnix)
}

// FormatWorkbook splits an .xlsx export by sheet. Rating and choice sheets
// are merged into one interactions file.
func FormatWorkbook(ctx context.Context, _ string, body []byte) (Output, error) {
	log := logging.Ctx(ctx)

	wb, err := tabular.OpenWorkbook(body)
	if err != nil {
		return Output{}, err
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to close workbook")
		}
	}()

	var out Output
	var interactions *tabular.Writer
	for _, sheet := range wb.Sheets() {
		switch sheet {
		case SheetMenus, SheetUsers, SheetRatings, SheetChoices:
		default:
			log.Info().Str("sheet", sheet).Msg("No formatter for sheet, skipping")
			continue
		}

		rows, err := wb.Rows(sheet)
		if err != nil {
			return Output{}, err
		}
		if len(rows) == 0 {
			log.Info().Str("sheet", sheet).Msg("Sheet is empty, skipping")
			continue
		}

		switch sheet {
		case SheetMenus:
			menus, err := FormatMenuSheet(ctx, rows)
			if err != nil {
				return Output{}, err
			}
			out.Artifacts = append(out.Artifacts, Artifact{Name: MenusFile, Body: menus})

		case SheetUsers:
			users, err := formatUserRows(ctx, rows[0], slices.All(rows[1:]), dates.ToUnix)
			if err != nil {
				return Output{}, err
			}
			out.Artifacts = append(out.Artifacts, Artifact{Name: UsersFile, Body: users})

		case SheetRatings, SheetChoices:
			if interactions == nil {
				if interactions, err = tabular.NewWriter(tabular.Comma, InteractionHeader); err != nil {
					return Output{}, err
				}
			}
			appendSheet := appendRatings
			if sheet == SheetChoices {
				appendSheet = appendChoices
			}
			if err := appendSheet(ctx, interactions, rows[0], slices.All(rows[1:]), dates.ToUnix); err != nil {
				return Output{}, err
			}
		}
	}

	if interactions != nil {
		ratings, err := interactions.Bytes()
		if err != nil {
			return Output{}, err
		}
		out.Artifacts = append(out.Artifacts, Artifact{Name: RatingsFile, Body: ratings})
	}
	if len(out.Artifacts) == 0 {
		return Output{}, fmt.Errorf("workbook has none of the sheets %q", []string{SheetMenus, SheetUsers, SheetRatings, SheetChoices})
	}
	return out, nil
}

// FormatMenuSheet resolves the two-row header of a menus sheet and keeps
// one row per meal name. Item ids of later rows with the same meal are
// appended to the first row's otherItemIds column.
func FormatMenuSheet(ctx context.Context, rows [][]string) ([]byte, error) {
	var second []string
	if len(rows) > 1 {
		second = rows[1]
	}
	b, err := rawMenusSchema.Bind(tabular.ResolveHeader(rows[0], second))
	if err != nil {
		return nil, err
	}

	type menuLine struct {
		cells  []string
		others []string
	}
	var lines []*menuLine
	byMeal := make(map[string]*menuLine)
	badDates, missingIDs := 0, 0

	for _, row := range rows[min(2, len(rows)):] {
		p := b.Project(row)
		itemID, meal := b.Value(p, "ITEM_ID"), b.Value(p, "Meal")
		if itemID == "" {
			if meal != "" {
				missingIDs++
			}
			continue
		}
		if line, ok := byMeal[meal]; ok {
			line.others = append(line.others, itemID)
			continue
		}
		badDates += len(dates.NormalizeRow(p, b.DateColumns()))
		line := &menuLine{cells: p, others: []string{itemID}}
		byMeal[meal] = line
		lines = append(lines, line)
	}

	w, err := tabular.NewWriter(tabular.Tab, append(slices.Clone(b.Header), OtherItemIDsColumn))
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := w.Write(append(line.cells, models.JoinIDs(line.others))); err != nil {
			return nil, err
		}
	}

	log := logging.Ctx(ctx)
	reportBadDates(ctx, rawMenusSchema.Name, badDates)
	if missingIDs > 0 {
		log.Warn().Int("rows", missingIDs).Msg("Menu rows without an item id were skipped")
	}
	log.Info().Int("rows", max(len(rows)-2, 0)).Int("menus", len(lines)).Msg("Formatted menus sheet")
	return w.Bytes()
}

func formatUserRows(ctx context.Context, header []string, rows iter.Seq2[int, []string], parse dateParser) ([]byte, error) {
	b, err := rawUsersSchema.Bind(header)
	if err != nil {
		return nil, err
	}
	w, err := tabular.NewWriter(tabular.Tab, b.Header)
	if err != nil {
		return nil, err
	}

	badDates := 0
	for _, row := range rows {
		p := b.Project(row)
		if b.Value(p, "user_id") == "" {
			continue
		}
		badDates += len(dates.NormalizeRowWith(p, b.DateColumns(), parse))
		if err := w.Write(p); err != nil {
			return nil, err
		}
	}
	reportBadDates(ctx, rawUsersSchema.Name, badDates)
	return w.Bytes()
}

func appendRatings(ctx context.Context, w *tabular.Writer, header []string, rows iter.Seq2[int, []string], parse dateParser) error {
	b, err := ratingsSchema.Bind(header)
	if err != nil {
		return err
	}

	badDates, badRatings := 0, 0
	for _, row := range rows {
		p := b.Project(row)
		itemID := b.Value(p, "menu_item_id")
		if itemID == "" {
			continue
		}
		rating, ok := parseRating(b.Value(p, "rating"))
		if !ok {
			badRatings++
			continue
		}
		liked := "0"
		if rating > 3 {
			liked = "1"
		}
		ts, ok := timestamp(b.Value(p, "date"), parse)
		if !ok {
			badDates++
		}
		err := w.Write([]string{
			b.Value(p, "user_id"),
			itemID,
			models.EventTypeWatch,
			strconv.Itoa(rating * 20),
			ts,
			liked,
		})
		if err != nil {
			return err
		}
	}

	reportBadDates(ctx, ratingsSchema.Name, badDates)
	if badRatings > 0 {
		logging.Ctx(ctx).Warn().Int("rows", badRatings).Msg("Rating rows with a non-numeric rating were skipped")
	}
	return nil
}

func appendChoices(ctx context.Context, w *tabular.Writer, header []string, rows iter.Seq2[int, []string], parse dateParser) error {
	b, err := choicesSchema.Bind(header)
	if err != nil {
		return err
	}

	badDates := 0
	for _, row := range rows {
		p := b.Project(row)
		if !strings.EqualFold(b.Value(p, "manual"), "true") {
			continue
		}
		itemID := b.Value(p, "menu_item_id")
		if itemID == "" {
			continue
		}
		ts, ok := timestamp(b.Value(p, "created_at"), parse)
		if !ok {
			badDates++
		}
		if err := w.Write([]string{b.Value(p, "user_id"), itemID, models.EventTypeClick, "1", ts, "1"}); err != nil {
			return err
		}
	}
	reportBadDates(ctx, choicesSchema.Name, badDates)
	return nil
}

// parseRating reads an integer rating. Fractional ratings are truncated.
func parseRating(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func timestamp(s string, parse dateParser) (string, bool) {
	ts, err := parse(s)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(ts, 10), true
}

func reportBadDates(ctx context.Context, schema string, n int) {
	if n == 0 {
		return
	}
	metrics.RecordDateParseFailures(schema, n)
	logging.Ctx(ctx).Warn().Str("schema", schema).Int("cells", n).Msg("Unparseable dates were cleared")
}
