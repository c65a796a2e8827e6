// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package models

import (
	"fmt"
	"net/url"
	"time"
)

// Notification is a storage event batch. The shape follows the S3 event
// notification format so events emitted by a real bucket and by the local
// lake decode the same way.
type Notification struct {
	Records []NotificationRecord `json:"Records"`
}

// NotificationRecord describes one created object.
type NotificationRecord struct {
	EventName string    `json:"eventName"`
	EventTime time.Time `json:"eventTime"`
	S3        S3Entity  `json:"s3"`
}

// S3Entity names the bucket and object of an event.
type S3Entity struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

// S3Bucket identifies the bucket.
type S3Bucket struct {
	Name string `json:"name"`
}

// S3Object identifies the object. Key is URL-encoded with spaces as '+'.
type S3Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// EventObjectCreated is the event name the local lake emits.
const EventObjectCreated = "ObjectCreated:Put"

// NewObjectCreated builds a single-record notification for key. The key is
// encoded the way S3 encodes it in events.
func NewObjectCreated(bucket, key string, size int64, at time.Time) Notification {
	return Notification{Records: []NotificationRecord{{
		EventName: EventObjectCreated,
		EventTime: at.UTC(),
		S3: S3Entity{
			Bucket: S3Bucket{Name: bucket},
			Object: S3Object{Key: url.QueryEscape(key), Size: size},
		},
	}}}
}

// DecodedKey returns the object key with URL escapes resolved and '+'
// treated as a space.
func (r NotificationRecord) DecodedKey() (string, error) {
	key, err := url.QueryUnescape(r.S3.Object.Key)
	if err != nil {
		return "", fmt.Errorf("decode object key %q: %w", r.S3.Object.Key, err)
	}
	return key, nil
}
