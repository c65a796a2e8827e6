// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Writer builds a delimited artifact in memory.
type Writer struct {
	buf   bytes.Buffer
	csv   *csv.Writer
	delim string
	rows  int
}

// NewWriter starts an artifact with the given header.
func NewWriter(delim rune, header []string) (*Writer, error) {
	w := &Writer{delim: string(delim)}
	w.csv = csv.NewWriter(&w.buf)
	w.csv.Comma = delim
	if err := w.csv.Write(w.clean(header)); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

// Write appends one row.
func (w *Writer) Write(row []string) error {
	if err := w.csv.Write(w.clean(row)); err != nil {
		return fmt.Errorf("write row %d: %w", w.rows, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int {
	return w.rows
}

// Bytes flushes the artifact and returns its contents.
func (w *Writer) Bytes() ([]byte, error) {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return nil, fmt.Errorf("flush artifact: %w", err)
	}
	return w.buf.Bytes(), nil
}

func (w *Writer) clean(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		v = strings.ReplaceAll(v, "\r\n", " ")
		v = strings.ReplaceAll(v, "\n", " ")
		v = strings.ReplaceAll(v, "\r", " ")
		out[i] = strings.ReplaceAll(v, w.delim, " ")
	}
	return out
}
