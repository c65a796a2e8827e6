// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mealreco/internal/config"
)

// fakeBedrock records requests and replies with a scripted body.
type fakeBedrock struct {
	mu       sync.Mutex
	requests []*bedrockruntime.InvokeModelInput
	body     string
	err      error
}

func (f *fakeBedrock) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, in)
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

// scripted returns a TextModel that answers with text or err.
func scripted(text string, err error) TextModel {
	return TextModelFunc(func(context.Context, Prompt) (string, error) {
		return text, err
	})
}

func TestBedrockTextModelRequestShape(t *testing.T) {
	t.Parallel()

	fake := &fakeBedrock{body: `{"content":[{"type":"text","text":"hello"}],"stop_reason":"end_turn"}`}
	m := NewBedrockTextModel(fake, "anthropic.claude-3-haiku-20240307-v1:0")

	got, err := m.Generate(context.Background(), Prompt{Instruction: "label this", Dataset: "rice, beans", Temperature: 0.7})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Generate() = %q", got)
	}

	req := fake.requests[0]
	if aws.ToString(req.ModelId) != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Errorf("ModelId = %q", aws.ToString(req.ModelId))
	}
	var body messagesRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatal(err)
	}
	if body.AnthropicVersion != BedrockAnthropicVersion || body.MaxTokens != 2048 || body.Temperature != 0.7 {
		t.Errorf("body = %+v", body)
	}
	if len(body.Messages) != 1 || len(body.Messages[0].Content) != 2 {
		t.Fatalf("messages = %+v", body.Messages)
	}
	if body.Messages[0].Content[0].Text != "label this" || body.Messages[0].Content[1].Text != "rice, beans" {
		t.Errorf("content = %+v", body.Messages[0].Content)
	}
}

func TestBedrockTextModelEmptyContent(t *testing.T) {
	t.Parallel()

	m := NewBedrockTextModel(&fakeBedrock{body: `{"content":[]}`}, "m")
	if _, err := m.Generate(context.Background(), Prompt{}); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Generate() error = %v, want ErrEmptyResponse", err)
	}
}

func TestAnthropicTextModel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-api-key") != "sk-test" || r.Header.Get("anthropic-version") != AnthropicAPIVersion {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"bad auth"}`)
			return
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model != "claude-3-haiku-20240307" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"{\"ok\":true}"}]}`)
	}))
	defer srv.Close()

	m := NewAnthropicTextModel(srv.URL+"/v1/", "sk-test", "claude-3-haiku-20240307", 5*time.Second)
	got, err := m.Generate(context.Background(), Prompt{Instruction: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != `{"ok":true}` {
		t.Errorf("Generate() = %q", got)
	}

	bad := NewAnthropicTextModel(srv.URL+"/v1", "wrong", "claude-3-haiku-20240307", 5*time.Second)
	_, err = bad.Generate(context.Background(), Prompt{})
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Errorf("Generate() with bad key error = %v", err)
	}
}

func TestAdapterClassifyStrictJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		answer  string
		wantErr bool
	}{
		{"bare object", `{"cuisine_type":"thai"}`, false},
		{"surrounding whitespace", "\n  {\"cuisine_type\":\"thai\"}\n", false},
		{"preamble", `Here is the JSON: {"cuisine_type":"thai"}`, true},
		{"code fence", "```json\n{\"cuisine_type\":\"thai\"}\n```", true},
		{"trailing prose", `{"cuisine_type":"thai"} Enjoy!`, true},
		{"refusal", `I cannot help with that.`, true},
		{"unquoted value", `{"cuisine_type": thai}`, true},
		{"unterminated", `{"cuisine_type":`, true},
		{"empty", "  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out mealLabels
			err := NewAdapter(scripted(tt.answer, nil)).Classify(context.Background(), "p", "d", 0, &out)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Classify(%q) = %+v, want parse failure", tt.answer, out)
				}
				return
			}
			if err != nil || out.CuisineType != "thai" {
				t.Errorf("Classify(%q) = %+v, %v", tt.answer, out, err)
			}
		})
	}
}

func TestClassifyMealPreambleFallsBack(t *testing.T) {
	t.Parallel()

	c := NewClassifier(NewAdapter(scripted(`Sure! {"cuisine_type":"thai","primary_ingredient":"chicken"}`, nil)))
	if got := c.ClassifyMeal(context.Background(), "Pad Thai", "chicken"); !reflect.DeepEqual(got, Classification{}) {
		t.Errorf("ClassifyMeal() = %+v, want the empty default", got)
	}
}

func TestClassifyMeal(t *testing.T) {
	t.Parallel()

	var seen Prompt
	model := TextModelFunc(func(_ context.Context, p Prompt) (string, error) {
		seen = p
		return `{"cuisine_type":"thai","primary_ingredient":"chicken","secondary_ingredient":"noodle",
			"third_ingredient":"bean sprout","other_ingredients":["peanut","lime"]}`, nil
	})
	c := NewClassifier(NewAdapter(model))

	got := c.ClassifyMeal(context.Background(), "Pad Thai", "rice noodles, chicken, peanuts")
	want := Classification{
		Genres:                "chicken",
		GenreL2:               "noodle",
		GenreL3:               "bean sprout",
		ContentClassification: "thai",
		Other:                 []string{"peanut", "lime"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ClassifyMeal() = %+v, want %+v", got, want)
	}
	if seen.Temperature != 0 || seen.Dataset != "rice noodles, chicken, peanuts" {
		t.Errorf("prompt = %+v", seen)
	}
	if !strings.Contains(seen.Instruction, "<meal>Pad Thai</meal>") {
		t.Error("instruction does not name the meal")
	}
}

func TestClassifyMealFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model TextModel
	}{
		{"model error", scripted("", errors.New("throttled"))},
		{"prose answer", scripted("I am not sure.", nil)},
		{"wrong shape", scripted(`{"other_ingredients":"salt"}`, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewClassifier(NewAdapter(tt.model)).ClassifyMeal(context.Background(), "Soup", "water")
			if !reflect.DeepEqual(got, Classification{}) {
				t.Errorf("ClassifyMeal() = %+v, want zero value", got)
			}
		})
	}
}

func TestMenuCreator(t *testing.T) {
	t.Parallel()

	var seen Prompt
	model := TextModelFunc(func(_ context.Context, p Prompt) (string, error) {
		seen = p
		return `[{"name":"Rice Bowl","description":"Simple","ingredients":["rice","egg"]}]`, nil
	})
	creator := NewMenuCreator(NewAdapter(model))

	ideas, err := creator.Create(context.Background(), []string{" rice", "egg ", ""})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(ideas) != 1 || ideas[0].Name != "Rice Bowl" || len(ideas[0].Ingredients) != 2 {
		t.Errorf("ideas = %+v", ideas)
	}
	if seen.Temperature != CreatorTemperature || seen.Dataset != "rice, egg" {
		t.Errorf("prompt = %+v", seen)
	}

	if _, err := creator.Create(context.Background(), []string{" "}); !errors.Is(err, ErrNoIngredients) {
		t.Errorf("empty ingredients error = %v", err)
	}

	failing := NewMenuCreator(NewAdapter(scripted("", errors.New("boom"))))
	if _, err := failing.Create(context.Background(), []string{"rice"}); err == nil {
		t.Error("expected error to surface")
	}
}

func TestBedrockImageModel(t *testing.T) {
	t.Parallel()

	fake := &fakeBedrock{body: `{"images":["aGVsbG8="]}`}
	gen := NewImageGenerator(NewBedrockImageModel(fake, "amazon.titan-image-generator-v2:0"))
	gen.seed = func() int { return 42 }

	img, err := gen.Generate(context.Background(), "Pad Thai with lime")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if img != "aGVsbG8=" {
		t.Errorf("image = %q", img)
	}

	var body titanRequest
	if err := json.Unmarshal(fake.requests[0].Body, &body); err != nil {
		t.Fatal(err)
	}
	cfg := body.ImageGenerationConfig
	if body.TaskType != "TEXT_IMAGE" || cfg.NumberOfImages != 1 || cfg.Quality != "standard" ||
		cfg.CfgScale != 8 || cfg.Width != 512 || cfg.Height != 512 || cfg.Seed != 42 {
		t.Errorf("request = %+v", body)
	}
	if !strings.HasSuffix(body.TextToImageParams.Text, "Pad Thai with lime") {
		t.Errorf("text = %q", body.TextToImageParams.Text)
	}
}

func TestImageGeneratorErrors(t *testing.T) {
	t.Parallel()

	empty := NewImageGenerator(NewBedrockImageModel(&fakeBedrock{body: `{"images":[]}`}, "m"))
	if _, err := empty.Generate(context.Background(), "soup"); !errors.Is(err, ErrNoImages) {
		t.Errorf("zero images error = %v, want ErrNoImages", err)
	}
	if _, err := empty.Generate(context.Background(), "  "); !errors.Is(err, ErrNoDescription) {
		t.Errorf("blank description error = %v, want ErrNoDescription", err)
	}
	failing := NewImageGenerator(NewBedrockImageModel(&fakeBedrock{err: errors.New("denied")}, "m"))
	if _, err := failing.Generate(context.Background(), "soup"); err == nil {
		t.Error("expected transport error")
	}
}

func TestGuardedTextModelOpensBreaker(t *testing.T) {
	t.Parallel()

	calls := 0
	model := TextModelFunc(func(context.Context, Prompt) (string, error) {
		calls++
		return "", errors.New("unavailable")
	})
	g := NewGuardedTextModel(model, GuardConfig{Name: "test_open", MaxFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := g.Generate(context.Background(), Prompt{}); err == nil {
			t.Fatal("expected failure")
		}
	}
	_, err := g.Generate(context.Background(), Prompt{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("third call error = %v, want ErrOpenState", err)
	}
	if calls != 2 {
		t.Errorf("underlying calls = %d, want 2", calls)
	}
	if g.State() != "open" {
		t.Errorf("State() = %q", g.State())
	}
}

func TestGuardedTextModelRateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	g := NewGuardedTextModel(scripted("ok", nil), GuardConfig{Name: "test_rate", RatePerSecond: 0.001})
	if _, err := g.Generate(context.Background(), Prompt{}); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Generate(ctx, Prompt{}); err == nil {
		t.Error("expected limiter wait to fail once the burst is spent")
	}
}

func TestNewModels(t *testing.T) {
	t.Parallel()

	none, err := NewModels(config.EnrichmentConfig{Provider: config.ProviderNone}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := none.Text.Generate(context.Background(), Prompt{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("disabled model error = %v", err)
	}
	if none.Image != nil {
		t.Error("disabled provider should have no image model")
	}

	if _, err := NewModels(config.EnrichmentConfig{Provider: config.ProviderBedrock}, nil); err == nil {
		t.Error("bedrock without client should fail")
	}

	bedrock, err := NewModels(config.EnrichmentConfig{
		Provider:     config.ProviderBedrock,
		TextModelID:  "t",
		ImageModelID: "i",
		Timeout:      time.Second,
	}, &fakeBedrock{body: `{"content":[{"type":"text","text":"x"}]}`})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := bedrock.Text.(*GuardedTextModel); !ok {
		t.Errorf("text model = %T, want guarded", bedrock.Text)
	}
	if bedrock.Image == nil {
		t.Error("bedrock should provide an image model")
	}
}
