// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package pipeline

import (
	"context"
	"fmt"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
)

// Dispatcher delivers storage events straight to the stages in-process.
// It stands in for the event bus in local runs: wrap the lake in an
// objectstore.NotifyingStore publishing to a Dispatcher, build the stages
// over that store, then set Stages.
//
// Delivery is synchronous, so a Put returns only after every downstream
// stage it triggered has finished.
type Dispatcher struct {
	Stages Stages
}

// PublishNotification runs the stage subscribed to topic. Stage failures
// are reported in the summary, not returned; a failing downstream stage
// must not fail the write that triggered it.
func (d *Dispatcher) PublishNotification(ctx context.Context, topic string, n models.Notification) error {
	for _, st := range d.Stages.All() {
		if st != nil && st.Name.Topic() == topic {
			st.Process(ctx, n)
			return nil
		}
	}
	logging.Ctx(ctx).Warn().Str("topic", topic).Msg("No stage subscribed to topic")
	return fmt.Errorf("no stage subscribed to %s", topic)
}
