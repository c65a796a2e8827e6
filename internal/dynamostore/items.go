// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package dynamostore

import (
	"github.com/tomtom215/mealreco/internal/models"
)

// menuItem is the DynamoDB shape of a menu. other_ids is pipe-joined.
type menuItem struct {
	ItemID                string `dynamodbav:"item_id"`
	OtherIDs              string `dynamodbav:"other_ids,omitempty"`
	CreatedAt             int64  `dynamodbav:"created_at"`
	Name                  string `dynamodbav:"name"`
	Genres                string `dynamodbav:"genres"`
	GenreL2               string `dynamodbav:"genre_l2"`
	GenreL3               string `dynamodbav:"genre_l3"`
	ProductDescription    string `dynamodbav:"product_description"`
	ContentClassification string `dynamodbav:"content_classification"`
}

func toMenuItem(r models.MenuRecord) menuItem {
	return menuItem{
		ItemID:                r.ItemID,
		OtherIDs:              models.JoinIDs(r.OtherIDs),
		CreatedAt:             r.CreatedAt,
		Name:                  r.Name,
		Genres:                r.Genres,
		GenreL2:               r.GenreL2,
		GenreL3:               r.GenreL3,
		ProductDescription:    r.ProductDescription,
		ContentClassification: r.ContentClassification,
	}
}

func (m menuItem) record() models.MenuRecord {
	return models.MenuRecord{
		ItemID:                m.ItemID,
		OtherIDs:              models.SplitIDs(m.OtherIDs),
		CreatedAt:             m.CreatedAt,
		Name:                  m.Name,
		Genres:                m.Genres,
		GenreL2:               m.GenreL2,
		GenreL3:               m.GenreL3,
		ProductDescription:    m.ProductDescription,
		ContentClassification: m.ContentClassification,
	}
}

type ingredientItem struct {
	Name  string `dynamodbav:"name"`
	Count int64  `dynamodbav:"count"`
}

// userItem omits created_at when the source value was not numeric.
type userItem struct {
	UserID        string `dynamodbav:"user_id"`
	ShippingCity  string `dynamodbav:"shipping_city"`
	ShippingState string `dynamodbav:"shipping_state"`
	Locale        string `dynamodbav:"locale"`
	CreatedAt     *int64 `dynamodbav:"created_at,omitempty"`
}

type interactionItem struct {
	ItemID     string  `dynamodbav:"item_id"`
	UserID     string  `dynamodbav:"user_id"`
	EventType  string  `dynamodbav:"event_type"`
	EventValue float64 `dynamodbav:"event_value"`
	CreatedAt  int64   `dynamodbav:"created_at"`
	Liked      int     `dynamodbav:"liked"`
}

func toUserItem(u models.UserRecord) userItem {
	return userItem(u)
}

func (u userItem) record() models.UserRecord {
	return models.UserRecord(u)
}

func toInteractionItem(r models.InteractionRecord) interactionItem {
	return interactionItem(r)
}

func (i interactionItem) record() models.InteractionRecord {
	return models.InteractionRecord(i)
}
