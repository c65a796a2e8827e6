// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/pipeline"
)

// StageProcessor runs one stage over a storage event. *pipeline.Stage
// implements it.
type StageProcessor interface {
	Process(ctx context.Context, n models.Notification) models.Summary
}

// StageHandler adapts a stage to a router handler.
//
// Record failures caused by the file content are final: they are logged
// and counted in the stage summary, and the message is acknowledged.
// Failures reading or writing the lake, and invocations cut short by
// their deadline, return an error so the message is redelivered.
// Undecodable messages return ErrMalformedEvent and go to the poison queue.
func StageHandler(stage models.Stage, p StageProcessor) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		n, err := DecodeNotification(msg)
		if err != nil {
			metrics.RecordNATSParseFailed()
			logging.Error().Err(err).Str("stage", string(stage)).Str("message_uuid", msg.UUID).
				Msg("Dropping undecodable storage event")
			return err
		}
		metrics.RecordNATSConsume(stage.Topic())

		ctx := msg.Context()
		if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		} else {
			ctx = logging.ContextWithNewCorrelationID(ctx)
		}

		summary := p.Process(ctx, n)
		if err := redeliverable(summary); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("stage", string(stage)).
				Msg("Stage invocation incomplete, event will be redelivered")
			return err
		}
		return nil
	}
}

// redeliverable returns the first failure worth another delivery.
func redeliverable(s models.Summary) error {
	for _, r := range s.Results {
		if r.Outcome != models.OutcomeFailed || r.Err == nil {
			continue
		}
		if errors.Is(r.Err, pipeline.ErrLakeIO) ||
			errors.Is(r.Err, context.DeadlineExceeded) ||
			errors.Is(r.Err, context.Canceled) {
			return fmt.Errorf("%s: %w", r.Key, r.Err)
		}
	}
	return nil
}

// RegisterStages adds one consumer handler per stage. subscriberFor
// returns the subscriber for a stage's subject.
func RegisterStages(r *Router, stages pipeline.Stages, subscriberFor func(models.Stage) (message.Subscriber, error)) error {
	for _, st := range stages.All() {
		if st == nil {
			continue
		}
		sub, err := subscriberFor(st.Name)
		if err != nil {
			return fmt.Errorf("subscriber for %s: %w", st.Name, err)
		}
		r.AddConsumerHandler("stage-"+string(st.Name), st.Name.Topic(), sub, StageHandler(st.Name, st))
	}
	return nil
}
