// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mealreco/internal/metrics"
)

var (
	// ErrNoImages is returned when the image service yields zero images.
	ErrNoImages = errors.New("enrichment: no image generated")

	// ErrNoDescription is returned when Generate gets a blank description.
	ErrNoDescription = errors.New("enrichment: description is required")
)

// ImageRequest describes one text-to-image call.
type ImageRequest struct {
	Text     string
	Width    int
	Height   int
	CfgScale float64
	Seed     int
}

// ImageModel renders images and returns them base64 encoded.
type ImageModel interface {
	GenerateImages(ctx context.Context, req ImageRequest) ([]string, error)
}

// ImageModelFunc adapts a function to ImageModel.
type ImageModelFunc func(ctx context.Context, req ImageRequest) ([]string, error)

// GenerateImages calls f.
func (f ImageModelFunc) GenerateImages(ctx context.Context, req ImageRequest) ([]string, error) {
	return f(ctx, req)
}

type titanRequest struct {
	TaskType              string                `json:"taskType"`
	TextToImageParams     titanTextParams       `json:"textToImageParams"`
	ImageGenerationConfig titanGenerationConfig `json:"imageGenerationConfig"`
}

type titanTextParams struct {
	Text string `json:"text"`
}

type titanGenerationConfig struct {
	NumberOfImages int     `json:"numberOfImages"`
	Quality        string  `json:"quality"`
	CfgScale       float64 `json:"cfgScale"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	Seed           int     `json:"seed"`
}

type titanResponse struct {
	Images []string `json:"images"`
	Error  string   `json:"error"`
}

// BedrockImageModel renders images with a Titan image model on Bedrock.
type BedrockImageModel struct {
	client  BedrockAPI
	modelID string
}

// NewBedrockImageModel creates an image model for modelID.
func NewBedrockImageModel(client BedrockAPI, modelID string) *BedrockImageModel {
	return &BedrockImageModel{client: client, modelID: modelID}
}

// GenerateImages implements ImageModel.
func (m *BedrockImageModel) GenerateImages(ctx context.Context, req ImageRequest) ([]string, error) {
	body, err := json.Marshal(titanRequest{
		TaskType:          "TEXT_IMAGE",
		TextToImageParams: titanTextParams{Text: req.Text},
		ImageGenerationConfig: titanGenerationConfig{
			NumberOfImages: 1,
			Quality:        "standard",
			CfgScale:       req.CfgScale,
			Height:         req.Height,
			Width:          req.Width,
			Seed:           req.Seed,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	out, err := m.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", m.modelID, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("image model: %s", resp.Error)
	}
	return resp.Images, nil
}

// Titan seeds must stay below this bound.
const maxImageSeed = 1_000_000

// ImageGenerator turns a meal description into a photo-style picture.
type ImageGenerator struct {
	model ImageModel
	seed  func() int
}

// NewImageGenerator creates a generator over model.
func NewImageGenerator(model ImageModel) *ImageGenerator {
	return &ImageGenerator{
		model: model,
		seed:  func() int { return rand.IntN(maxImageSeed) },
	}
}

// Generate returns one base64 encoded image for description.
func (g *ImageGenerator) Generate(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrNoDescription
	}

	start := time.Now()
	images, err := g.model.GenerateImages(ctx, ImageRequest{
		Text:     "Create a photo realistic picture of a meal like in a recipe book. The meal is: " + description,
		Width:    512,
		Height:   512,
		CfgScale: 8,
		Seed:     g.seed(),
	})
	if err == nil && len(images) == 0 {
		err = ErrNoImages
	}
	metrics.RecordEnrichmentCall("image", time.Since(start), err)
	if err != nil {
		return "", err
	}
	return images[0], nil
}
