// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/mealreco/internal/tabular"
)

// readRows splits a formatted artifact back into header and rows.
func readRows(t *testing.T, body []byte, delim rune) ([]string, [][]string) {
	t.Helper()
	header, rows, err := tabular.Split(body, delim)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	var out [][]string
	for _, row := range rows {
		out = append(out, row)
	}
	return header, out
}

// workbook builds an .xlsx body from sheet name to rows.
func workbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFormatRatings(t *testing.T) {
	t.Parallel()

	body := "id,user_id,menu_item_id,rating,date\r\n" +
		"1,U1,M1,5,2024-01-01\r\n" +
		"2,U2,M1,2,2024-01-01\r\n" +
		"3,U3,,4,2024-01-01\r\n" +
		"4,U4,M2,good,2024-01-01\r\n" +
		"5,U5,M3,4,someday\r\n"

	out, err := FormatRatings(context.Background(), []byte(body))
	if err != nil {
		t.Fatalf("FormatRatings: %v", err)
	}
	header, rows := readRows(t, out, tabular.Comma)
	if !reflect.DeepEqual(header, InteractionHeader) {
		t.Errorf("header = %q", header)
	}
	want := [][]string{
		{"U1", "M1", "Watch", "100", "1704067200", "1"},
		{"U2", "M1", "Watch", "40", "1704067200", "0"},
		{"U5", "M3", "Watch", "80", "", "1"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

func TestFormatRatingsMissingColumn(t *testing.T) {
	t.Parallel()

	_, err := FormatRatings(context.Background(), []byte("user_id,menu_item_id,date\nU1,M1,2024-01-01\n"))
	var cfgErr *tabular.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
	if cfgErr.Column != "rating" {
		t.Errorf("missing column = %q, want rating", cfgErr.Column)
	}
}

func TestFormatChoicesKeepsManual(t *testing.T) {
	t.Parallel()

	body := "user_id,menu_item_id,manual,created_at\n" +
		"U1,M1,true,2024-01-01\n" +
		"U2,M2,false,2024-01-01\n" +
		"U3,M3,TRUE,2024-01-02\n"

	out, err := FormatChoices(context.Background(), []byte(body))
	if err != nil {
		t.Fatal(err)
	}
	_, rows := readRows(t, out, tabular.Comma)
	want := [][]string{
		{"U1", "M1", "Click", "1", "1704067200", "1"},
		{"U3", "M3", "Click", "1", "1704153600", "1"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

func TestFormatUsers(t *testing.T) {
	t.Parallel()

	body := "user_id,email,shipping_city,shipping_state,locale,created_at,grandpa\n" +
		"u1,a@x.io,\"Montreal, Downtown\",QC,fr,2024-01-01,1\n" +
		",orphan@x.io,Laval,QC,fr,2024-01-01,0\n" +
		"u2,b@x.io,Quebec,QC,en,never,0\n"

	out, err := FormatUsers(context.Background(), []byte(body))
	if err != nil {
		t.Fatalf("FormatUsers: %v", err)
	}
	header, rows := readRows(t, out, tabular.Tab)
	wantHeader := []string{"user_id", "shipping_city", "shipping_state", "grandpa", "locale", "created_at"}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Errorf("header = %q, want %q", header, wantHeader)
	}
	want := [][]string{
		{"u1", "Montreal Downtown", "QC", "1", "fr", "1704067200"},
		{"u2", "Quebec", "QC", "0", "en", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

func TestFormatUsersKeepsCanonicalColumns(t *testing.T) {
	t.Parallel()

	body := "user_id,deleted_at,shipping_city,shipping_state,grandpa,subscribed,locale,last_login_at,created_at,subscribed_at,vegetable_side_dish,show_meats,email\n" +
		"u1,,Laval,QC,0,1,fr,2024-01-02,2024-01-01,2024-01-03,1,1,a@x.io\n"

	out, err := FormatUsers(context.Background(), []byte(body))
	if err != nil {
		t.Fatalf("FormatUsers: %v", err)
	}
	header, rows := readRows(t, out, tabular.Tab)
	wantHeader := []string{"user_id", "deleted_at", "shipping_city", "shipping_state", "grandpa",
		"subscribed", "locale", "last_login_at", "created_at", "subscribed_at"}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Errorf("header = %q, want %q", header, wantHeader)
	}
	if len(rows) != 1 || len(rows[0]) != len(wantHeader) {
		t.Fatalf("rows = %q", rows)
	}
	if rows[0][8] != "1704067200" {
		t.Errorf("created_at = %q, want epoch seconds", rows[0][8])
	}
}

func TestFormatMenuSheetDedupesByMeal(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"Menu ID", "Menu Start Date", "Item", "Meal", "", "Costs", ""},
		{"", "", "Item Id", "Meal(En)", "Ingredients(En)", "Food Cost", "Labor Cost"},
		{"W1", "45000", "I1", "Pad Thai", "noodles, peanuts", "4.5", "2"},
		{"W1", "45000", "I2", "Bibimbap", "rice, egg", "5", "1"},
		{"W2", "45007", "I3", "Pad Thai", "noodles, peanuts", "4.5", "2"},
		{"W3", "45014", "I4", "Pad Thai", "noodles, peanuts", "4.5", "2"},
		{"W3", "45014", "", "Orphan", "", "", ""},
	}

	out, err := FormatMenuSheet(context.Background(), rows)
	if err != nil {
		t.Fatalf("FormatMenuSheet: %v", err)
	}
	header, got := readRows(t, out, tabular.Tab)
	wantHeader := []string{"menu_id", "CREATION_TIMESTAMP", "ITEM_ID", "Meal", "Ingredients", "FoodCost", "LaborCost", "otherItemIds"}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Errorf("header = %q, want %q", header, wantHeader)
	}
	want := [][]string{
		{"W1", "1678838400", "I1", "Pad Thai", "noodles, peanuts", "4.5", "2", "I1|I3|I4"},
		{"W1", "1678838400", "I2", "Bibimbap", "rice, egg", "5", "1", "I2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}

func TestFormatMenuSheetRequiresItemID(t *testing.T) {
	t.Parallel()

	_, err := FormatMenuSheet(context.Background(), [][]string{{"Meal(En)"}, {""}, {"Pad Thai"}})
	var cfgErr *tabular.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Column != "Item Id" {
		t.Errorf("err = %v, want ConfigError for Item Id", err)
	}
}

func TestFormatWorkbook(t *testing.T) {
	t.Parallel()

	body := workbook(t, map[string][][]any{
		SheetMenus: {
			{"Item", "Meal", "Costs", "", "Ingredients(En)"},
			{"Item Id", "Meal(En)", "Food Cost", "Labor Cost", ""},
			{"I1", "Pad Thai", 4.5, 2, "noodles"},
		},
		SheetRatings: {
			{"user_id", "menu_item_id", "rating", "date"},
			{"U1", "I1", 5, 45292},
		},
		SheetChoices: {
			{"user_id", "menu_item_id", "manual", "created_at"},
			{"U2", "I1", "true", 45292},
			{"U3", "I1", "false", 45292},
		},
		"user_ingredient_preferences": {
			{"user_id", "ingredient"},
		},
	})

	out, err := FormatWorkbook(context.Background(), "data/raw/export.xlsx", body)
	if err != nil {
		t.Fatalf("FormatWorkbook: %v", err)
	}

	byName := make(map[string][]byte)
	for _, a := range out.Artifacts {
		byName[a.Name] = a.Body
	}
	if len(byName) != 2 || byName[MenusFile] == nil || byName[RatingsFile] == nil {
		t.Fatalf("artifacts = %v, want menus.csv and ratings.csv", keys(byName))
	}

	_, ratings := readRows(t, byName[RatingsFile], tabular.Comma)
	if len(ratings) != 2 {
		t.Fatalf("ratings rows = %q, want one rating and one choice", ratings)
	}
	for _, r := range ratings {
		if r[4] != "1704067200" {
			t.Errorf("timestamp = %q, want serial 45292 as 1704067200", r[4])
		}
	}

	_, menus := readRows(t, byName[MenusFile], tabular.Tab)
	if len(menus) != 1 || menus[0][0] != "I1" || menus[0][len(menus[0])-1] != "I1" {
		t.Errorf("menus = %q", menus)
	}
}

func TestFormatWorkbookWithoutKnownSheets(t *testing.T) {
	t.Parallel()

	body := workbook(t, map[string][][]any{"notes": {{"hello"}}})
	if _, err := FormatWorkbook(context.Background(), "data/raw/x.xlsx", body); err == nil {
		t.Error("expected error for a workbook with no known sheets")
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRawRouteOrder(t *testing.T) {
	t.Parallel()

	stage := NewRawStage(nil)
	tests := map[string]string{
		"data/raw/meal_customer_ratings.csv": "ratings",
		"data/raw/user_choices.csv":          "choices",
		"data/raw/users.csv":                 "users",
		"data/raw/users_ratings.csv":         "ratings",
		"data/raw/export.xlsx":               "workbook",
	}
	for key, want := range tests {
		r, ok := stage.route(key)
		if !ok || r.Name != want {
			t.Errorf("route(%q) = %q, %v; want %q", key, r.Name, ok, want)
		}
	}
	if _, ok := stage.route("data/raw/notes.txt"); ok {
		t.Error("notes.txt should not match any route")
	}
	if !strings.HasPrefix(stage.Next.Prefix(), "data/formated/") {
		t.Errorf("next prefix = %q", stage.Next.Prefix())
	}
}
