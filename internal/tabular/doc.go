// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

/*
Package tabular reads and writes the delimited files and workbooks that move
through the lake.

Reading:

  - Split parses a comma or tab delimited body into a header and a lazy,
    single-pass row sequence
  - OpenWorkbook reads .xlsx workbooks with raw cell values, so date cells
    arrive as spreadsheet serial numbers
  - ResolveHeader merges the two-row headers used by the menu sheets

Schemas:

A Schema lists the source columns a formatter needs and the names they take
in the output. Schema.Bind checks a header once and returns a Binding that
projects every following row; a missing required column is reported as a
*ConfigError.

Writing:

Writer emits a header plus rows. Delimiters and line breaks inside values are
replaced with a space so every record stays on one line.
*/
package tabular
