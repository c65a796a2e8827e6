// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/mealreco/internal/config"
)

// Models bundles the text and image models selected by configuration. Image
// is nil when the provider cannot render images.
type Models struct {
	Text  TextModel
	Image ImageModel
}

// disabledModel fails every call; it backs ENRICHMENT_PROVIDER=none so the
// pipeline still runs and writes unlabeled menus.
type disabledModel struct{}

// ErrDisabled is returned by every call when enrichment is turned off.
var ErrDisabled = errors.New("enrichment: provider disabled")

func (disabledModel) Generate(context.Context, Prompt) (string, error) {
	return "", ErrDisabled
}

// NewModels builds the configured models. bedrock may be nil unless the
// provider is bedrock.
func NewModels(cfg config.EnrichmentConfig, bedrock BedrockAPI) (Models, error) {
	var text TextModel
	var image ImageModel

	switch cfg.Provider {
	case config.ProviderBedrock:
		if bedrock == nil {
			return Models{}, fmt.Errorf("bedrock provider selected without a bedrock client")
		}
		text = NewBedrockTextModel(bedrock, cfg.TextModelID)
		if cfg.ImageModelID != "" {
			image = NewBedrockImageModel(bedrock, cfg.ImageModelID)
		}
	case config.ProviderAnthropic:
		text = NewAnthropicTextModel(cfg.AnthropicURL, cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout)
	case config.ProviderNone:
		return Models{Text: disabledModel{}}, nil
	default:
		return Models{}, fmt.Errorf("unknown enrichment provider %q", cfg.Provider)
	}

	guarded := NewGuardedTextModel(text, GuardConfig{
		Name:          "enrichment_" + cfg.Provider,
		RatePerSecond: cfg.RateLimit,
		MaxFailures:   cfg.BreakerFailures,
		OpenTimeout:   cfg.BreakerTimeout,
		CallTimeout:   cfg.Timeout,
	})
	return Models{Text: guarded, Image: image}, nil
}
