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

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
	"github.com/tomtom215/mealreco/internal/tabular"
)

// RecordWriter persists curated rows. *curated.Writer implements it.
type RecordWriter interface {
	PersistMenus(ctx context.Context, rows []models.MenuRow) (models.WriteReport, error)
	PersistUsers(ctx context.Context, rows []models.UserRow) (models.WriteReport, error)
	PersistInteractions(ctx context.Context, rows []models.InteractionRow) (models.WriteReport, error)
}

var curatedMenusSchema = tabular.Schema{Name: "curated menus", Columns: []tabular.Column{
	{Source: "ITEM_ID", Target: "ITEM_ID", Required: true},
	{Source: "CREATION_TIMESTAMP", Target: "CREATION_TIMESTAMP"},
	{Source: "NAME", Target: "NAME", Required: true},
	{Source: "GENRES", Target: "GENRES"},
	{Source: "GENRE_L2", Target: "GENRE_L2"},
	{Source: "GENRE_L3", Target: "GENRE_L3"},
	{Source: "PRODUCT_DESCRIPTION", Target: "PRODUCT_DESCRIPTION"},
	{Source: "CONTENT_CLASSIFICATION", Target: "CONTENT_CLASSIFICATION"},
	{Source: "OTHER_ITEM_IDS", Target: "OTHER_ITEM_IDS"},
}}

var curatedUsersSchema = tabular.Schema{Name: "curated users", Columns: []tabular.Column{
	{Source: "USER_ID", Target: "USER_ID", Required: true},
	{Source: "INTERESTS", Target: "INTERESTS"},
	{Source: "SHIPPING_CITY", Target: "SHIPPING_CITY"},
	{Source: "SHIPPING_STATE", Target: "SHIPPING_STATE"},
	{Source: "LOCALE", Target: "LOCALE"},
	{Source: "CREATED_AT", Target: "CREATED_AT"},
}}

// NewCuratedStage persists curated files through w.
func NewCuratedStage(objects objectstore.Store, w RecordWriter) *Stage {
	return &Stage{
		Name:    models.StageCurated,
		Objects: objects,
		Routes: []Route{
			{Name: "menus", Match: Contains(MenusFile), Handle: persistWith(ParseMenuRows, w.PersistMenus)},
			{Name: "users", Match: Contains(UsersFile), Handle: persistWith(ParseUserRows, w.PersistUsers)},
			{Name: "ratings", Match: Contains("rating"), Handle: persistWith(ParseInteractionRows, w.PersistInteractions)},
		},
	}
}

func persistWith[R any](
	parse func([]byte) ([]R, error),
	persist func(context.Context, []R) (models.WriteReport, error),
) Handler {
	return func(ctx context.Context, _ string, body []byte) (Output, error) {
		rows, err := parse(body)
		if err != nil {
			return Output{}, err
		}
		report, err := persist(ctx, rows)
		return Output{Records: report}, err
	}
}

// ParseMenuRows reads curated/menus.csv.
func ParseMenuRows(body []byte) ([]models.MenuRow, error) {
	header, rows, err := tabular.Split(body, tabular.Comma)
	if err != nil {
		return nil, fmt.Errorf("curated menus: %w", err)
	}
	b, err := curatedMenusSchema.Bind(header)
	if err != nil {
		return nil, err
	}

	var out []models.MenuRow
	for _, row := range rows {
		p := b.Project(row)
		id := b.Value(p, "ITEM_ID")
		if id == "" {
			continue
		}
		out = append(out, models.MenuRow{
			ItemID:                id,
			CreatedAt:             parseInt(b.Value(p, "CREATION_TIMESTAMP")),
			Name:                  b.Value(p, "NAME"),
			Genres:                b.Value(p, "GENRES"),
			GenreL2:               b.Value(p, "GENRE_L2"),
			GenreL3:               b.Value(p, "GENRE_L3"),
			Description:           strings.Split(b.Value(p, "PRODUCT_DESCRIPTION"), models.IDSeparator),
			ContentClassification: b.Value(p, "CONTENT_CLASSIFICATION"),
			OtherIDs:              models.SplitIDs(b.Value(p, "OTHER_ITEM_IDS")),
		})
	}
	return out, nil
}

// ParseUserRows reads curated/users.csv. CREATED_AT is passed through raw;
// the writer decides what a non-numeric value means.
func ParseUserRows(body []byte) ([]models.UserRow, error) {
	header, rows, err := tabular.Split(body, tabular.Comma)
	if err != nil {
		return nil, fmt.Errorf("curated users: %w", err)
	}
	b, err := curatedUsersSchema.Bind(header)
	if err != nil {
		return nil, err
	}

	var out []models.UserRow
	for _, row := range rows {
		p := b.Project(row)
		out = append(out, models.UserRow{
			UserID:        b.Value(p, "USER_ID"),
			Interests:     b.Value(p, "INTERESTS"),
			ShippingCity:  b.Value(p, "SHIPPING_CITY"),
			ShippingState: b.Value(p, "SHIPPING_STATE"),
			Locale:        b.Value(p, "LOCALE"),
			CreatedAt:     b.Value(p, "CREATED_AT"),
		})
	}
	return out, nil
}

// ParseInteractionRows reads a curated interaction file.
func ParseInteractionRows(body []byte) ([]models.InteractionRow, error) {
	header, rows, err := tabular.Split(body, tabular.Comma)
	if err != nil {
		return nil, fmt.Errorf("curated interactions: %w", err)
	}
	b, err := interactionSchema.Bind(header)
	if err != nil {
		return nil, err
	}

	var out []models.InteractionRow
	for _, row := range rows {
		p := b.Project(row)
		liked := 0
		if b.Value(p, "LIKED") == "1" {
			liked = 1
		}
		out = append(out, models.InteractionRow{
			UserID:       b.Value(p, "USER_ID"),
			SourceItemID: b.Value(p, "ITEM_ID"),
			EventType:    b.Value(p, "EVENT_TYPE"),
			EventValue:   number(b.Value(p, "EVENT_VALUE")),
			CreatedAt:    parseInt(b.Value(p, "TIMESTAMP")),
			Liked:        liked,
		})
	}
	return out, nil
}

// parseInt reads the integer prefix of a unix timestamp, so "1700000000.5"
// reads as 1700000000. Anything unparseable is zero.
func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
