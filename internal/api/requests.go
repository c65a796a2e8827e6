// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

// MenuCreatorRequest is the body of POST /menus/creator.
type MenuCreatorRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,min=1,max=50,dive,required,max=100"`
}

// MenuImageRequest is the body of POST /menus/image.
type MenuImageRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
}

// MenuSearchRequest holds GET /menus/search parameters.
type MenuSearchRequest struct {
	Search string `json:"search" validate:"required,max=200"`
}

// UsersRequest holds GET /users parameters.
type UsersRequest struct {
	Limit int    `json:"limit" validate:"gte=1"`
	After string `json:"after" validate:"max=256"`
}

// IDListRequest holds a comma-separated id list parameter.
type IDListRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,required,max=256"`
}

// InteractionsRequest holds GET /interactions parameters. Exactly one of
// the two ids is expected; user_id wins when both are given.
type InteractionsRequest struct {
	UserID string `json:"user_id" validate:"required_without=ItemID,max=256"`
	ItemID string `json:"item_id" validate:"required_without=UserID,max=256"`
}

// PicksRequest holds GET /recommendations/picks parameters.
type PicksRequest struct {
	UserID string `json:"user_id" validate:"required,max=256"`
}

// UploadRequest holds PUT /lake/raw/{filename} parameters.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,max=255,excludesall=/\\,excludes=.."`
}
