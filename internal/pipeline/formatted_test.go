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
	"sync/atomic"
	"testing"

	"github.com/tomtom215/mealreco/internal/enrichment"
	"github.com/tomtom215/mealreco/internal/tabular"
)

// scriptedClassifier answers from a table keyed by meal name.
type scriptedClassifier struct {
	labels   map[string]enrichment.Classification
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *scriptedClassifier) ClassifyMeal(_ context.Context, meal, _ string) enrichment.Classification {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return s.labels[meal]
}

// modelClassifier wires a real Classifier to a scripted text model.
func modelClassifier(answer func(enrichment.Prompt) (string, error)) *enrichment.Classifier {
	model := enrichment.TextModelFunc(func(_ context.Context, p enrichment.Prompt) (string, error) {
		return answer(p)
	})
	return enrichment.NewClassifier(enrichment.NewAdapter(model))
}

const formattedMenus = "menu_id\tCREATION_TIMESTAMP\tITEM_ID\tMeal\tIngredients\tFoodCost\tLaborCost\totherItemIds\n" +
	"W1\t1678838400\tI1\tPad Thai, Classic\tnoodles, peanuts\t4.5\t2\tI1|I3\n" +
	"W1\t1678838400\tI2\tBibimbap\trice, egg\tn/a\t1.25\tI2\n"

func TestEnrichMenus(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{labels: map[string]enrichment.Classification{
		"Pad Thai, Classic": {Genres: "tofu", GenreL2: "noodle", GenreL3: "sprout", ContentClassification: "thai", Other: []string{"peanut", " ", "lime"}},
		"Bibimbap":          {Genres: "egg", GenreL2: "rice", GenreL3: "spinach", ContentClassification: "korean"},
	}}
	m := &menuEnricher{classifier: classifier}

	out, err := m.Enrich(context.Background(), []byte(formattedMenus))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	header, rows := readRows(t, out, tabular.Comma)
	if !reflect.DeepEqual(header, CuratedMenuHeader) {
		t.Errorf("header = %q", header)
	}
	want := [][]string{
		{"I1", "6.50", "1678838400", "Pad Thai  Classic", "tofu", "noodle", "sprout", "Pad Thai  Classic|peanut|lime", "thai", "I1|I3"},
		{"I2", "1.25", "1678838400", "Bibimbap", "egg", "rice", "spinach", "Bibimbap", "korean", "I2"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q\nwant %q", rows, want)
	}
}

func TestEnrichMenusClassificationFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	classifier := modelClassifier(func(enrichment.Prompt) (string, error) {
		calls.Add(1)
		return "", errors.New("model unavailable")
	})
	m := &menuEnricher{classifier: classifier}

	out, err := m.Enrich(context.Background(), []byte(formattedMenus))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	_, rows := readRows(t, out, tabular.Comma)
	if len(rows) != 2 || calls.Load() != 2 {
		t.Fatalf("rows = %d, calls = %d; want 2 and 2", len(rows), calls.Load())
	}
	for _, r := range rows {
		if r[4] != "" || r[5] != "" || r[6] != "" || r[8] != "" {
			t.Errorf("row %q should carry empty labels", r)
		}
	}
}

func TestEnrichMenusParsesModelAnswer(t *testing.T) {
	t.Parallel()

	classifier := modelClassifier(func(p enrichment.Prompt) (string, error) {
		if strings.Contains(p.Instruction, "Bibimbap") {
			return `{"cuisine_type":"korean","primary_ingredient":"egg","secondary_ingredient":"rice","third_ingredient":"spinach","other_ingredients":["sesame"]}`, nil
		}
		return `Here you go: {"cuisine_type":"thai"}`, nil
	})
	m := &menuEnricher{classifier: classifier}

	out, err := m.Enrich(context.Background(), []byte(formattedMenus))
	if err != nil {
		t.Fatal(err)
	}
	_, rows := readRows(t, out, tabular.Comma)
	if rows[0][8] != "" {
		t.Errorf("unparseable answer labeled row as %q", rows[0][8])
	}
	if rows[1][8] != "korean" || rows[1][7] != "Bibimbap|sesame" {
		t.Errorf("Bibimbap row = %q", rows[1])
	}
}

func TestEnrichMenusConcurrencyCap(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("ITEM_ID\tMeal\tIngredients\tFoodCost\tLaborCost\n")
	for i := range 40 {
		b.WriteString("I")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString("\tmeal\tx\t1\t1\n")
	}

	classifier := &scriptedClassifier{}
	m := &menuEnricher{classifier: classifier, concurrency: 3}
	out, err := m.Enrich(context.Background(), []byte(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	_, rows := readRows(t, out, tabular.Comma)
	if len(rows) != 40 {
		t.Errorf("rows = %d, want 40", len(rows))
	}
	if peak := classifier.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak)
	}
}

func TestEnrichMenusRequiresCosts(t *testing.T) {
	t.Parallel()

	m := &menuEnricher{classifier: &scriptedClassifier{}}
	_, err := m.Enrich(context.Background(), []byte("ITEM_ID\tMeal\tIngredients\tFoodCost\nI1\tx\ty\t1\n"))
	var cfgErr *tabular.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Column != "LaborCost" {
		t.Errorf("err = %v, want ConfigError for LaborCost", err)
	}
}

func TestCurateUsersInterests(t *testing.T) {
	t.Parallel()

	body := "user_id\tshipping_city\tshipping_state\tgrandpa\tsubscribed\tlocale\tcreated_at\tvegetable_side_dish\tshow_meats\n" +
		"u1\tMontreal\tQC\t1\t0\tfr\t1704067200\t1\t0\n" +
		"u2\tToronto\tON\t0\t1\ten\t\t0\t1\n"

	out, err := CurateUsers(context.Background(), []byte(body))
	if err != nil {
		t.Fatal(err)
	}
	header, rows := readRows(t, out, tabular.Comma)
	if !reflect.DeepEqual(header, CuratedUserHeader) {
		t.Errorf("header = %q", header)
	}
	want := [][]string{
		{"u1", "Montreal|QC|fr|vegetable|grandpa", "Montreal", "QC", "fr", "1704067200"},
		{"u2", "Toronto|ON|en|subscribed|show_meats", "Toronto", "ON", "en", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

func TestNormalizeInteractionsReorders(t *testing.T) {
	t.Parallel()

	body := "LIKED,USER_ID,ITEM_ID,TIMESTAMP,EVENT_TYPE,EVENT_VALUE\n1,U1,M1,1704067200,Watch,100\n"
	out, err := NormalizeInteractions(context.Background(), []byte(body))
	if err != nil {
		t.Fatal(err)
	}
	header, rows := readRows(t, out, tabular.Comma)
	if !reflect.DeepEqual(header, InteractionHeader) {
		t.Errorf("header = %q", header)
	}
	if !reflect.DeepEqual(rows, [][]string{{"U1", "M1", "Watch", "100", "1704067200", "1"}}) {
		t.Errorf("rows = %q", rows)
	}
}

func TestPrice(t *testing.T) {
	t.Parallel()

	tests := []struct{ food, labor, want string }{
		{"4.5", "2", "6.50"},
		{"", "", "0.00"},
		{"abc", "1.005", "1.00"},
		{" 3 ", "0.333", "3.33"},
	}
	for _, tt := range tests {
		if got := price(tt.food, tt.labor); got != tt.want {
			t.Errorf("price(%q, %q) = %q, want %q", tt.food, tt.labor, got, tt.want)
		}
	}
}
