// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/goccy/go-json"
)

// BedrockAnthropicVersion is the messages schema version Bedrock expects.
const BedrockAnthropicVersion = "bedrock-2023-05-31"

// BedrockAPI is the subset of the Bedrock runtime client used here.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockTextModel generates text with an Anthropic model hosted on Bedrock.
type BedrockTextModel struct {
	client  BedrockAPI
	modelID string
}

// NewBedrockTextModel creates a text model for modelID.
func NewBedrockTextModel(client BedrockAPI, modelID string) *BedrockTextModel {
	return &BedrockTextModel{client: client, modelID: modelID}
}

// Generate implements TextModel.
func (m *BedrockTextModel) Generate(ctx context.Context, p Prompt) (string, error) {
	req := newMessagesRequest(p)
	req.AnthropicVersion = BedrockAnthropicVersion

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal bedrock request: %w", err)
	}

	out, err := m.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", m.modelID, err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode bedrock response: %w", err)
	}
	return resp.firstText()
}
