// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package models

import "strings"

// MenuRecord is a curated menu as held by the store. ItemID is the canonical
// identifier; OtherIDs lists the alternate identifiers folded into it.
// A menu is created once and never rewritten.
type MenuRecord struct {
	ItemID                string   `json:"item_id"`
	OtherIDs              []string `json:"other_ids,omitempty"`
	CreatedAt             int64    `json:"created_at"`
	Name                  string   `json:"name"`
	Genres                string   `json:"genres"`
	GenreL2               string   `json:"genre_l2"`
	GenreL3               string   `json:"genre_l3"`
	ProductDescription    string   `json:"product_description"`
	ContentClassification string   `json:"content_classification"`
}

// IngredientRecord counts how many menu tokens referenced an ingredient.
type IngredientRecord struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// UserRecord is a curated user profile. CreatedAt is nil when the source
// value was not numeric.
type UserRecord struct {
	UserID        string `json:"user_id"`
	ShippingCity  string `json:"shipping_city"`
	ShippingState string `json:"shipping_state"`
	Locale        string `json:"locale"`
	CreatedAt     *int64 `json:"created_at"`
}

// InteractionRecord is one stored (item, user) interaction.
type InteractionRecord struct {
	ItemID     string  `json:"item_id"`
	UserID     string  `json:"user_id"`
	EventType  string  `json:"event_type"`
	EventValue float64 `json:"event_value"`
	CreatedAt  int64   `json:"created_at"`
	Liked      int     `json:"liked"`
}

// Key returns the composite (user, item) key used for in-batch collapsing.
func (r InteractionRecord) Key() string {
	return r.UserID + ":" + r.ItemID
}

// Event types emitted by the raw stage.
const (
	EventTypeWatch = "Watch"
	EventTypeClick = "Click"
)

// IDSeparator joins alternate identifiers and description tokens.
const IDSeparator = "|"

// JoinIDs encodes identifiers as a pipe-delimited string.
func JoinIDs(ids []string) string {
	return strings.Join(ids, IDSeparator)
}

// SplitIDs decodes a pipe-delimited identifier list, dropping blanks.
func SplitIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, IDSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func trimToken(s string) string {
	return strings.TrimSpace(s)
}

func joinDescription(tokens []string) string {
	return strings.Join(tokens, IDSeparator)
}
