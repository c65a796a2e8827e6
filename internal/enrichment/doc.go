// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package enrichment talks to the text and image models that label menus.

Text Models:

  - BedrockTextModel: Anthropic messages on Bedrock via InvokeModel
  - AnthropicTextModel: the Anthropic Messages HTTP API
  - GuardedTextModel: wraps any TextModel with a rate limiter and a
    circuit breaker

Callers:

  - Adapter.Classify generates text and decodes the JSON value it contains
  - Classifier.ClassifyMeal labels one menu row; it never fails and falls
    back to an empty Classification
  - MenuCreator.Create proposes menus from an ingredient list
  - ImageGenerator.Generate renders a meal picture through an ImageModel

Classification runs once per row during bulk ingest and is not retried. A
failed call leaves that row unlabeled rather than stopping the file.
*/
package enrichment
