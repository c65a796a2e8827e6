// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/mealreco/internal/models"
)

// Message metadata keys.
const (
	MetadataCorrelationID = "correlation_id"
	MetadataObjectKey     = "object_key"
)

// eventNamespace seeds the deterministic message ids.
var eventNamespace = uuid.MustParse("6f1c2f4e-7a53-4a8e-9d38-4f3c2b1a9e10")

// EncodeNotification turns a storage event into a watermill message. The
// message UUID is derived from the object keys and event times, so the
// same event published twice is dropped by the stream's duplicate window.
func EncodeNotification(n models.Notification, correlationID string) (*message.Message, error) {
	if len(n.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrMalformedEvent)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}

	msg := message.NewMessage(notificationID(n), payload)
	msg.Metadata.Set(MetadataObjectKey, n.Records[0].S3.Object.Key)
	if correlationID != "" {
		msg.Metadata.Set(MetadataCorrelationID, correlationID)
	}
	return msg, nil
}

// DecodeNotification reads a storage event from msg. Errors wrap
// ErrMalformedEvent.
func DecodeNotification(msg *message.Message) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		return n, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if len(n.Records) == 0 {
		return n, fmt.Errorf("%w: no records", ErrMalformedEvent)
	}
	return n, nil
}

func notificationID(n models.Notification) string {
	var b strings.Builder
	for _, r := range n.Records {
		b.WriteString(r.S3.Bucket.Name)
		b.WriteByte('/')
		b.WriteString(r.S3.Object.Key)
		b.WriteByte('@')
		b.WriteString(r.EventTime.UTC().Format(time.RFC3339Nano))
		b.WriteByte('\n')
	}
	return uuid.NewSHA1(eventNamespace, []byte(b.String())).String()
}
