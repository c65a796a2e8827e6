// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package tabular

import (
	"fmt"
	"strings"
)

// Column maps a source header label to an output column.
type Column struct {
	Source   string
	Target   string
	Required bool
	// Date marks columns rewritten to unix seconds by the date normalizer.
	Date bool
}

// Schema is an ordered list of columns a formatter keeps.
type Schema struct {
	Name    string
	Columns []Column
}

// ConfigError reports a header that lacks a required column. It fails the
// file being formatted, never the whole batch.
type ConfigError struct {
	Schema string
	Column string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: required column %q not found in header", e.Schema, e.Column)
}

// Binding is a Schema resolved against one header.
type Binding struct {
	// Header holds the output column names in schema order, without the
	// optional columns the source did not have.
	Header []string

	source []int
	dates  []int
	byName map[string]int
}

// Bind validates header against the schema. Labels are compared after
// trimming, case-insensitively. Source columns the schema does not list are
// dropped; optional columns missing from the header are omitted.
func (s Schema) Bind(header []string) (*Binding, error) {
	positions := make(map[string]int, len(header))
	for i, label := range header {
		key := strings.ToLower(strings.TrimSpace(label))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	b := &Binding{byName: make(map[string]int, len(s.Columns))}
	for _, col := range s.Columns {
		idx, ok := positions[strings.ToLower(col.Source)]
		if !ok {
			if col.Required {
				return nil, &ConfigError{Schema: s.Name, Column: col.Source}
			}
			continue
		}
		if col.Date {
			b.dates = append(b.dates, len(b.Header))
		}
		b.byName[col.Target] = len(b.Header)
		b.Header = append(b.Header, col.Target)
		b.source = append(b.source, idx)
	}
	return b, nil
}

// Project maps a source row to the output column order. Short rows yield
// empty values for the missing cells.
func (b *Binding) Project(row []string) []string {
	out := make([]string, len(b.source))
	for i, idx := range b.source {
		out[i] = strings.TrimSpace(cell(row, idx))
	}
	return out
}

// DateColumns returns the output positions of the date columns.
func (b *Binding) DateColumns() []int {
	return b.dates
}

// Index returns the output position of target, or -1.
func (b *Binding) Index(target string) int {
	if i, ok := b.byName[target]; ok {
		return i
	}
	return -1
}

// Value returns the projected value of target, or "" when the column is absent.
func (b *Binding) Value(projected []string, target string) string {
	return cell(projected, b.Index(target))
}
