// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package tabular

import "strings"

// ResolveHeader merges a two-row header. Each column takes the second-row
// label when it is non-blank and falls back to the first row otherwise.
// The header ends at the first column where both rows are blank.
func ResolveHeader(row1, row2 []string) []string {
	n := max(len(row1), len(row2))
	header := make([]string, 0, n)
	for i := 0; i < n; i++ {
		top := strings.TrimSpace(cell(row1, i))
		sub := strings.TrimSpace(cell(row2, i))
		switch {
		case sub != "":
			header = append(header, sub)
		case top != "":
			header = append(header, top)
		default:
			return header
		}
	}
	return header
}

// cell returns row[i], or "" when the row is shorter than i+1.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
