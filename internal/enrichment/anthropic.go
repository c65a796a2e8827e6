// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// AnthropicAPIVersion is sent in the anthropic-version header.
const AnthropicAPIVersion = "2023-06-01"

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// AnthropicTextModel calls the Anthropic Messages API directly. It serves
// deployments that run outside AWS.
type AnthropicTextModel struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewAnthropicTextModel creates a client for baseURL (for example
// https://api.anthropic.com/v1).
func NewAnthropicTextModel(baseURL, apiKey, model string, timeout time.Duration) *AnthropicTextModel {
	return &AnthropicTextModel{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Generate implements TextModel.
func (m *AnthropicTextModel) Generate(ctx context.Context, p Prompt) (string, error) {
	req := newMessagesRequest(p)
	req.Model = m.model

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build messages request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", m.apiKey)
	httpReq.Header.Set("anthropic-version", AnthropicAPIVersion)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("messages request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("messages request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}
	return out.firstText()
}
