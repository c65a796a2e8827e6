// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package pipeline implements the three lake stages.

Each Stage receives storage notifications for its key prefix, fetches the
object, picks the first Route whose pattern matches the key and writes the
route's artifacts under the next stage's prefix:

	data/raw/       ratings, choices, users exports and .xlsx workbooks
	data/formated/  tab-delimited menus and users, comma-delimited interactions
	data/curated/   enriched menus, users with interests, interactions

The curated stage writes no artifacts; its routes hand typed rows to a
RecordWriter. Stages never call each other. The only link between them is
an object write and the storage event it produces, so a chain only runs end
to end when the object store publishes events (see objectstore.NotifyingStore).

Records of one notification are processed sequentially. A failing record
is reported in the Summary and never aborts the rest of the batch.
*/
package pipeline
