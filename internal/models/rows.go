// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package models

// MenuRow is one line of curated/menus.csv after binding.
type MenuRow struct {
	ItemID                string
	Price                 string
	CreatedAt             int64
	Name                  string
	Genres                string
	GenreL2               string
	GenreL3               string
	Description           []string
	ContentClassification string
	OtherIDs              []string
}

// Tokens returns the ingredient tokens the row contributes to the ingredient
// counters: the description's ingredient tokens followed by the three genre
// levels. The first description token is the meal name and is not an
// ingredient. Tokens are trimmed and blanks are skipped. Duplicates are
// kept, each occurrence counts.
func (r MenuRow) Tokens() []string {
	raw := make([]string, 0, len(r.Description)+3)
	if len(r.Description) > 1 {
		raw = append(raw, r.Description[1:]...)
	}
	raw = append(raw, r.Genres, r.GenreL2, r.GenreL3)

	tokens := raw[:0]
	for _, t := range raw {
		if t = trimToken(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Record converts the row to the stored menu shape.
func (r MenuRow) Record() MenuRecord {
	return MenuRecord{
		ItemID:                r.ItemID,
		OtherIDs:              r.OtherIDs,
		CreatedAt:             r.CreatedAt,
		Name:                  r.Name,
		Genres:                r.Genres,
		GenreL2:               r.GenreL2,
		GenreL3:               r.GenreL3,
		ProductDescription:    joinDescription(r.Description),
		ContentClassification: r.ContentClassification,
	}
}

// UserRow is one line of curated/users.csv after binding. CreatedAt is kept
// raw so the writer can report values that are not numeric.
type UserRow struct {
	UserID        string
	Interests     string
	ShippingCity  string
	ShippingState string
	Locale        string
	CreatedAt     string
}

// InteractionRow is one line of an interaction export. SourceItemID is the
// identifier as it appeared in the source and may be an alternate id.
type InteractionRow struct {
	UserID       string
	SourceItemID string
	EventType    string
	EventValue   float64
	CreatedAt    int64
	Liked        int
}
