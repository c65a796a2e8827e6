// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/metrics"
	"github.com/tomtom215/mealreco/internal/models"
)

// EventPublisher delivers storage events to stage consumers.
type EventPublisher interface {
	PublishNotification(ctx context.Context, topic string, n models.Notification) error
}

// NotifyingStore publishes a storage event after each Put under a stage
// prefix. Placeholder keys and keys outside the stage prefixes are written
// silently.
type NotifyingStore struct {
	Store
	bucket    string
	publisher EventPublisher
	now       func() time.Time
}

// NewNotifyingStore wraps store.
func NewNotifyingStore(store Store, bucket string, publisher EventPublisher) *NotifyingStore {
	return &NotifyingStore{Store: store, bucket: bucket, publisher: publisher, now: time.Now}
}

// Put writes the object, then publishes its event. The object stays written
// when publishing fails; the error reports the missing event.
func (n *NotifyingStore) Put(ctx context.Context, key string, body []byte) error {
	if err := n.Store.Put(ctx, key, body); err != nil {
		return err
	}

	stage, ok := models.StageForKey(key)
	if !ok {
		return nil
	}
	metrics.RecordLakeWrite(stage.Prefix())
	if models.IsPlaceholderKey(key) {
		return nil
	}

	event := models.NewObjectCreated(n.bucket, key, int64(len(body)), n.now())
	if err := n.publisher.PublishNotification(ctx, stage.Topic(), event); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Str("topic", stage.Topic()).
			Msg("Object written but storage event was not published")
		return fmt.Errorf("publish event for %s: %w", key, err)
	}
	logging.Ctx(ctx).Debug().Str("key", key).Str("topic", stage.Topic()).Msg("Storage event published")
	return nil
}
