// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/mealreco/internal/models"
)

func TestEncodeNotification(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := models.NewObjectCreated("mealreco", "data/raw/meal ratings.csv", 42, at)

	msg, err := EncodeNotification(n, "abc123")
	if err != nil {
		t.Fatalf("EncodeNotification: %v", err)
	}
	if got := msg.Metadata.Get(MetadataCorrelationID); got != "abc123" {
		t.Errorf("correlation id = %q", got)
	}
	if got := msg.Metadata.Get(MetadataObjectKey); got != "data%2Fraw%2Fmeal+ratings.csv" {
		t.Errorf("object key = %q", got)
	}

	again, err := EncodeNotification(n, "other")
	if err != nil {
		t.Fatal(err)
	}
	if msg.UUID != again.UUID {
		t.Errorf("same event got ids %s and %s", msg.UUID, again.UUID)
	}
	later, err := EncodeNotification(models.NewObjectCreated("mealreco", "data/raw/meal ratings.csv", 42, at.Add(time.Second)), "")
	if err != nil {
		t.Fatal(err)
	}
	if later.UUID == msg.UUID {
		t.Error("a later write of the same key must get a new id")
	}

	decoded, err := DecodeNotification(msg)
	if err != nil {
		t.Fatalf("DecodeNotification: %v", err)
	}
	key, err := decoded.Records[0].DecodedKey()
	if err != nil || key != "data/raw/meal ratings.csv" {
		t.Errorf("decoded key = %q, %v", key, err)
	}
	if !decoded.Records[0].EventTime.Equal(at) || decoded.Records[0].S3.Object.Size != 42 {
		t.Errorf("decoded record = %+v", decoded.Records[0])
	}
}

func TestDecodeNotificationMalformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":   "{",
		"no records": `{"Records":[]}`,
		"wrong type": `{"Records":"x"}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeNotification(message.NewMessage("1", []byte(payload)))
			if !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("err = %v, want ErrMalformedEvent", err)
			}
		})
	}
}

func TestEncodeEmptyNotification(t *testing.T) {
	t.Parallel()

	if _, err := EncodeNotification(models.Notification{}, ""); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("err = %v, want ErrMalformedEvent", err)
	}
}
