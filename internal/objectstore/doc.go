// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package objectstore holds the lake: raw, formated and curated objects keyed
by path.

Backends:

  - Badger: embedded key-value store, the default for a single node
  - S3: an S3 bucket through aws-sdk-go-v2
  - Memory: map-backed, for tests and throwaway runs

NotifyingStore decorates any backend and publishes an S3-shaped storage
event on the stage topic after every successful Put. With the S3 backend in
production, bucket notifications can take that role instead and the plain
store is used.
*/
package objectstore
