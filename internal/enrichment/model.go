// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package enrichment

import (
	"context"
	"errors"
)

// DefaultMaxTokens bounds every text generation.
const DefaultMaxTokens = 2048

// ErrEmptyResponse is returned when a model answers without any text.
var ErrEmptyResponse = errors.New("enrichment: model returned no text")

// Prompt is one text generation request. Instruction and Dataset are sent
// as two separate text parts of a single user message.
type Prompt struct {
	Instruction string
	Dataset     string
	Temperature float64
	MaxTokens   int
}

func (p Prompt) maxTokens() int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return DefaultMaxTokens
}

// TextModel generates a completion for a prompt.
type TextModel interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// TextModelFunc adapts a function to TextModel.
type TextModelFunc func(ctx context.Context, p Prompt) (string, error)

// Generate calls f.
func (f TextModelFunc) Generate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// messagesRequest is the Anthropic messages body shared by Bedrock and the
// direct API. Bedrock takes AnthropicVersion in the body and the model id
// out of band; the direct API takes Model in the body.
type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	Model            string    `json:"model,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentPart `json:"content"`
	StopReason string        `json:"stop_reason"`
}

func newMessagesRequest(p Prompt) messagesRequest {
	return messagesRequest{
		MaxTokens:   p.maxTokens(),
		Temperature: p.Temperature,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: p.Instruction},
				{Type: "text", Text: p.Dataset},
			},
		}},
	}
}

// firstText returns the text of the first content part.
func (r messagesResponse) firstText() (string, error) {
	if len(r.Content) == 0 || r.Content[0].Text == "" {
		return "", ErrEmptyResponse
	}
	return r.Content[0].Text, nil
}
